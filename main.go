package main

import "billing-service/internal/app/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/example/reviewsched/internal/cli"

func main() {
	cli.Execute()
}

package main

import (
	"context"
	"os"

	"cmsgo/service"
)

var exit = os.Exit

func main() {
	exit(service.Main(context.Background(), os.Args[1:]))
}

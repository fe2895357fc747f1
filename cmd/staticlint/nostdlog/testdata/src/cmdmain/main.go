package main

import "fmt"

func main() {
	fmt.Println("usage: shortener [flags]")
}

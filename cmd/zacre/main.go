// Package main is the entry point for the zacre command.
package main

func main() {
	Execute()
}

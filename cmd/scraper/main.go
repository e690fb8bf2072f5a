// Package main provides the entry point for the catalog scraper CLI.
package main

func main() {
	Execute()
}

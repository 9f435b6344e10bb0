package main

import "eclipse/cmd/eclipse/root"

func main() {
	root.Execute()
}

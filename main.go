package main

import "github.com/KNN-07/NotebookLM2Anki/cmd"

func main() {
	cmd.Execute()
}

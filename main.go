package main

import (
	"fmt"
	"os"

	"yashubustudio/healthnavigator/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Println("Error: Dataset could not be loaded.")
		os.Exit(1)
	}
}

// Command standupconnect serves the StandUp Connect marketplace API.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/standupconnect/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("standupconnect: ")
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

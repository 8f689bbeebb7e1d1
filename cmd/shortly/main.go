// The shortly binary runs the URL-shortening and account service.
package main

import (
	"log"

	"github.com/Verkylen/projeto17-shortly/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalln("application initialization failed:", err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		log.Fatalln("application stopped with error:", err)
	}
}

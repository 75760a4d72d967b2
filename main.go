package main

import (
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/app"

	"github.com/gofiber/fiber/v2/log"
)

func main() {
	// setup and run app
	err := app.SetupAndRunServer()
	if err != nil {
		log.Trace(err)
		panic(err)
	}
}

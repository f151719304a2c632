package main

import (
	"os"

	src "catchall-api/internal/dig"

	"github.com/joho/godotenv"
)

func loadEnv() {
	// The container image ships without env files, all parameters fall back
	// to their defaults or to the process environment.
	if _, err := os.Stat("./.env"); err == nil {
		if err := godotenv.Load("./.env"); err != nil {
			panic(err)
		}
	}
	if _, err := os.Stat("./.env.local"); err != nil {
		return
	}
	if err := godotenv.Overload("./.env.local"); err != nil {
		panic(err)
	}
}

func main() {
	loadEnv()

	kernel := src.NewKernel()

	app := src.NewApp(kernel)
	if err := app.Run(); err != nil {
		panic(err)
	}
}

package main

import (
	"github.com/partydeck/core/internal/app"
	"github.com/partydeck/core/internal/config"
)

func main() {
	app.Go(config.Load())
}

package main

import (
	"flag"
	"log"

	"github.com/pkg/profile"

	"github.com/Digi-Cazter/nes/internal/nes"
	"github.com/Digi-Cazter/nes/internal/ui"
)

func main() {
	profileMode := flag.Bool("profile", false, "write a cpu profile to the working directory")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: nes [-profile] <rom.nes>\n")
	}

	if *profileMode {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	cart, err := nes.NewCartFromFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("couldn't load the rom: %s\n", err)
	}

	bus := nes.NewBus()
	bus.LoadCart(cart)

	if err := ui.RunUI(ui.New(bus)); err != nil {
		log.Fatalf("ui: %s\n", err)
	}
}

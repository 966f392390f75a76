package main

import (
	"flag"
	"log"

	"github.com/danmuck/cic64/internal/config"
)

const defaultPath = "cmd/cicctl/config.toml"

func main() {
	kind := flag.String("kind", "gpio", "template kind: gpio|sim")
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadCicConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s (region=%s)", cfg.Backend, *input, cfg.Region)
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, *output)
}

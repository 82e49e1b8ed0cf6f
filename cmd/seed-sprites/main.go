package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Generates a synthetic sprite library for trying out monster-scan without
// real game assets: one directory per entity, a few PNG variants each.

func main() {
	outDir := flag.String("out", "sprites", "Output sprite library directory")
	numEntities := flag.Int("entities", 3, "Number of entities to generate")
	numVariants := flag.Int("variants", 2, "Number of template variants per entity")
	size := flag.Int("size", 24, "Sprite edge length in pixels")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	if *seed != 0 {
		rand.Seed(*seed)
	}

	names := []string{"Zombie", "Skeleton", "Slime", "Ghoul", "Wraith", "Imp"}

	for i := 0; i < *numEntities && i < len(names); i++ {
		entityDir := filepath.Join(*outDir, names[i])
		if err := os.MkdirAll(entityDir, 0755); err != nil {
			log.Fatalf("Failed to create %s: %v", entityDir, err)
		}

		for v := 0; v < *numVariants; v++ {
			sprite := generateSprite(*size, i, v)
			path := filepath.Join(entityDir, fmt.Sprintf("variant_%d.png", v+1))
			if err := imaging.Save(sprite, path); err != nil {
				log.Fatalf("Failed to save %s: %v", path, err)
			}
			log.Printf("Wrote %s", path)
		}
	}

	log.Println("Sprite library seeding complete")
}

// generateSprite produces a textured square so templates have enough
// intensity variance to match reliably
func generateSprite(size, entity, variant int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	base := uint8(60 + entity*50)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			noise := uint8(rand.Intn(90))
			img.Set(x, y, color.RGBA{
				R: base + noise,
				G: uint8(30+variant*40) + noise/2,
				B: uint8(200-entity*40) - noise/3,
				A: 255,
			})
		}
	}

	// Checker overlay to give each entity a distinct structure
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/4+y/4+entity)%2 == 0 {
				c := img.RGBAAt(x, y)
				c.R = c.R / 2
				c.G = c.G / 2
				img.SetRGBA(x, y, c)
			}
		}
	}

	return imaging.Clone(img)
}

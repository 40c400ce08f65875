package garden

import (
	"context"
	"fmt"

	"example.com/garden/store"
)

type Ground struct {
	water *Water
	plant *Plant
}

func NewGround(water *Water, plant *Plant) *Ground {
	return &Ground{water: water, plant: plant}
}

func (g *Ground) PlantG() {
	g.water.Plant()
	fmt.Println("Planting in ground")
}

type Plant struct {
	ground *Ground
	water  *Water
	repo   store.Repo
}

func NewPlant(ctx context.Context, ground *Ground, water *Water, repo store.Repo) *Plant {
	return &Plant{ground: ground, water: water, repo: repo}
}

func (p *Plant) PlantInGround() {
	p.ground.PlantG()
	p.ground.PlantG()
	fmt.Println("planting in ground")
}

func (p *Plant) PlantInWater() error {
	p.water.Plant()
	return p.repo.Save(p.water)
}

type Water struct{}

func (w Water) Plant() {
	w.flow()
}

func (w Water) flow() {}

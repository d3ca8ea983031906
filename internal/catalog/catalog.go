package catalog

import "strings"

// Catalog is the read-only fruit and device table. It is built once at
// startup and never mutated, so it is safe for concurrent use.
type Catalog struct {
	fruits    []Fruit
	fruitIdx  map[string]int
	devices   []Device
	deviceIdx map[string]int
	panels    []PanelCategory
}

func newCatalog(fruits []Fruit, devices []Device, panels []PanelCategory) *Catalog {
	c := &Catalog{
		fruits:    fruits,
		fruitIdx:  make(map[string]int, len(fruits)),
		devices:   devices,
		deviceIdx: make(map[string]int, len(devices)),
		panels:    panels,
	}
	for i, f := range fruits {
		c.fruitIdx[strings.ToLower(f.Name)] = i
	}
	for i, d := range devices {
		c.deviceIdx[strings.ToLower(d.Name)] = i
	}
	return c
}

// List returns every fruit ordered by name.
func (c *Catalog) List() []Fruit {
	out := make([]Fruit, len(c.fruits))
	for i, f := range c.fruits {
		out[i] = f.clone()
	}
	return out
}

// Lookup finds a fruit by name, ignoring case.
func (c *Catalog) Lookup(name string) (Fruit, bool) {
	i, ok := c.fruitIdx[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Fruit{}, false
	}
	return c.fruits[i].clone(), true
}

// Devices returns the full device table in catalog order.
func (c *Catalog) Devices() []Device {
	return append([]Device(nil), c.devices...)
}

// Device finds a device by name, ignoring case.
func (c *Catalog) Device(name string) (Device, bool) {
	i, ok := c.deviceIdx[strings.ToLower(name)]
	if !ok {
		return Device{}, false
	}
	return c.devices[i], true
}

// DevicesInCategory returns devices of the given category.
func (c *Catalog) DevicesInCategory(category string) []Device {
	var out []Device
	for _, d := range c.devices {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// PanelCategories returns the panel-scale device groupings.
func (c *Catalog) PanelCategories() []PanelCategory {
	return append([]PanelCategory(nil), c.panels...)
}

// PanelCategory finds a panel category by key.
func (c *Catalog) PanelCategory(key string) (PanelCategory, bool) {
	for _, p := range c.panels {
		if p.Key == key {
			return p, true
		}
	}
	return PanelCategory{}, false
}

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/edwinsyarief/kizuna"
	"github.com/edwinsyarief/kizuna/serial"
)

// Name labels an entity in the tree view.
type Name struct {
	kizuna.ComponentBase
	Value string `toml:"value"`
}

type Position struct {
	kizuna.ComponentBase
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

type Health struct {
	kizuna.ComponentBase
	HP  int `toml:"hp"`
	Max int `toml:"max"`
}

// sceneFile is the on-disk layout of a scene:
//
//	[[entity]]
//	id = "camp"
//	groups = ["poi"]
//	[entity.components.name]
//	value = "Camp"
//
//	[[entity]]
//	id = "guard"
//	parent = "camp"
type sceneFile struct {
	Entities []sceneEntity `toml:"entity"`
}

type sceneEntity struct {
	ID         string                    `toml:"id"`
	Parent     string                    `toml:"parent"`
	Groups     []string                  `toml:"groups"`
	Components map[string]map[string]any `toml:"components"`
}

func newRegistry() (*kizuna.SerializerRegistry, error) {
	r := kizuna.NewSerializerRegistry()
	if err := serial.Register[Name](r, "name"); err != nil {
		return nil, err
	}
	if err := serial.Register[Position](r, "position"); err != nil {
		return nil, err
	}
	if err := serial.Register[Health](r, "health"); err != nil {
		return nil, err
	}
	return r, nil
}

// loadScene creates the entities of the scene at path. Parents must appear
// before their children.
func loadScene(path string, m *kizuna.EntityManager, r *kizuna.SerializerRegistry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var scene sceneFile
	if err := toml.Unmarshal(data, &scene); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return buildScene(scene, m, r)
}

func buildScene(scene sceneFile, m *kizuna.EntityManager, r *kizuna.SerializerRegistry) error {
	ids := make(map[string]kizuna.HandleID, len(scene.Entities))
	for i, se := range scene.Entities {
		var (
			e   *kizuna.Entity
			err error
		)
		if se.Parent == "" {
			e = m.CreateEntity()
		} else {
			pid, ok := ids[se.Parent]
			if !ok {
				return fmt.Errorf("entity %d (%s): unknown parent %q: %w", i, se.ID, se.Parent, kizuna.ErrNotFound)
			}
			if e, err = m.CreateChild(pid); err != nil {
				return err
			}
		}
		if se.ID != "" {
			ids[se.ID] = e.ID()
		}
		for _, g := range se.Groups {
			if err := e.AddToGroup(g); err != nil {
				return err
			}
		}
		if err := serial.ApplyTables(r, e, se.Components); err != nil {
			return fmt.Errorf("entity %d (%s): %w", i, se.ID, err)
		}
		if kizuna.GetComponent[Name](e) == nil && se.ID != "" {
			kizuna.AddComponent(e, Name{Value: se.ID})
		}
	}
	return m.Update()
}

// demoScene is used when no scene file is given.
func demoScene() sceneFile {
	return sceneFile{Entities: []sceneEntity{
		{ID: "village", Groups: []string{"poi"}, Components: map[string]map[string]any{
			"position": {"x": 10.0, "y": 4.0},
		}},
		{ID: "smith", Parent: "village", Components: map[string]map[string]any{
			"health": {"hp": 30, "max": 30},
		}},
		{ID: "apprentice", Parent: "smith", Components: map[string]map[string]any{
			"health": {"hp": 12, "max": 20},
		}},
		{ID: "guard", Parent: "village", Groups: []string{"actors"}, Components: map[string]map[string]any{
			"health":   {"hp": 45, "max": 50},
			"position": {"x": 11.0, "y": 6.5},
		}},
		{ID: "cave", Groups: []string{"poi"}, Components: map[string]map[string]any{
			"position": {"x": -3.0, "y": 18.0},
		}},
		{ID: "bat", Parent: "cave", Groups: []string{"actors"}, Components: map[string]map[string]any{
			"health": {"hp": 5, "max": 5},
		}},
	}}
}

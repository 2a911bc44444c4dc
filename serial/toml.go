// Package serial provides TOML-backed component serializers and whole-entity
// dumps built on them.
package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/edwinsyarief/kizuna"
)

// TOML serializes components of type T as TOML documents. Exported fields
// of T are encoded; the embedded ComponentBase is skipped.
type TOML[T any, PT interface {
	*T
	kizuna.Component
}] struct{}

// Serialize encodes c, which must be a PT.
func (TOML[T, PT]) Serialize(c kizuna.Component) ([]byte, error) {
	p, ok := c.(PT)
	if !ok {
		return nil, fmt.Errorf("serial: %T is not %T: %w", c, PT(nil), kizuna.ErrInvalidOperation)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("serial: encode %T: %w", c, err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes data into a new T and sets it on e, replacing an
// existing component of the same type.
func (TOML[T, PT]) Deserialize(e *kizuna.Entity, data []byte) (kizuna.Component, error) {
	var v T
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("serial: decode %T: %w", v, err)
	}
	c, err := kizuna.SetComponent[T, PT](e, v)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// staged is a decoded component waiting to be set on an entity.
type staged struct {
	key kizuna.TypeKey
	set func(e *kizuna.Entity) error
}

// stager decodes without touching an entity.
type stager interface {
	stage(data []byte) (staged, error)
}

func (TOML[T, PT]) stage(data []byte) (staged, error) {
	var v T
	if err := toml.Unmarshal(data, &v); err != nil {
		return staged{}, fmt.Errorf("serial: decode %T: %w", v, err)
	}
	return staged{
		key: kizuna.ComponentKey[T](),
		set: func(e *kizuna.Entity) error {
			_, err := kizuna.SetComponent[T, PT](e, v)
			return err
		},
	}, nil
}

// Register binds a TOML serializer for T under name.
func Register[T any, PT interface {
	*T
	kizuna.Component
}](r *kizuna.SerializerRegistry, name string) error {
	return kizuna.RegisterSerializer[T](r, name, TOML[T, PT]{})
}

// EncodeEntity writes every serializable component of e as one TOML
// document with a table per component, named by its object name.
// Components without a registered serializer are skipped.
func EncodeEntity(w io.Writer, r *kizuna.SerializerRegistry, e *kizuna.Entity) error {
	doc := make(map[string]map[string]any)
	for _, c := range e.Components() {
		name, data, err := kizuna.SerializeComponent(r, c)
		if err != nil {
			if errors.Is(err, kizuna.ErrNotFound) {
				continue
			}
			return err
		}
		table := make(map[string]any)
		if err := toml.Unmarshal(data, &table); err != nil {
			return fmt.Errorf("serial: re-read %s: %w", name, err)
		}
		doc[name] = table
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("serial: encode entity %s: %w", e.ID(), err)
	}
	return nil
}

// DecodeEntity reads a document written by EncodeEntity and sets each
// component on e. See ApplyTables.
func DecodeEntity(rd io.Reader, r *kizuna.SerializerRegistry, e *kizuna.Entity) error {
	doc := make(map[string]map[string]any)
	if _, err := toml.NewDecoder(rd).Decode(&doc); err != nil {
		return fmt.Errorf("serial: decode entity: %w", err)
	}
	return ApplyTables(r, e, doc)
}

// ApplyTables sets one component on e per table, in table name order. Every
// table is decoded and checked against e before the first one is set, so a
// bad document leaves e unchanged: unknown names fail with
// kizuna.ErrNotFound, tables whose components would collide on e with
// kizuna.ErrAlreadyExists, and serializers that are not TOML with
// kizuna.ErrInvalidOperation.
func ApplyTables(r *kizuna.SerializerRegistry, e *kizuna.Entity, tables map[string]map[string]any) error {
	names := make([]string, 0, len(tables))
	for name := range tables {
		if _, err := r.ObjectKey(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	batch := make([]staged, 0, len(names))
	claimed := make(map[kizuna.TypeKey]string)
	for _, name := range names {
		s, err := r.SerializerByName(name)
		if err != nil {
			return err
		}
		st, ok := s.(stager)
		if !ok {
			return fmt.Errorf("serial: %s: %T is not a TOML serializer: %w", name, s, kizuna.ErrInvalidOperation)
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tables[name]); err != nil {
			return fmt.Errorf("serial: encode %s: %w", name, err)
		}
		c, err := st.stage(buf.Bytes())
		if err != nil {
			return fmt.Errorf("serial: %s: %w", name, err)
		}
		if err := e.CanSet(c.key); err != nil {
			return err
		}
		for _, b := range kizuna.BaseKeys(c.key) {
			if other, dup := claimed[b]; dup {
				return fmt.Errorf("serial: %s and %s both answer to %s: %w",
					other, name, kizuna.TypeName(kizuna.RoleComponent, b), kizuna.ErrAlreadyExists)
			}
			claimed[b] = name
		}
		batch = append(batch, c)
	}
	for _, c := range batch {
		if err := c.set(e); err != nil {
			return err
		}
	}
	return nil
}

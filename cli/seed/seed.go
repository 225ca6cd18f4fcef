// Package seed imports initial contacts from a TOML file.
//
//	[[contacts]]
//	name = "Ava"
//	phone = "9998887777"
//	favourite = true
package seed

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	ds "github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/services"
)

type File struct {
	Contacts []Contact `toml:"contacts"`
}

type Contact struct {
	Name      string `toml:"name"`
	Phone     string `toml:"phone"`
	Email     string `toml:"email"`
	SaveTo    string `toml:"save_to"`
	Favourite bool   `toml:"favourite"`
	Blocked   bool   `toml:"blocked"`
}

func Load(path string) (*File, error) {
	var f File
	_, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// Import creates the contacts of f unless the directory already holds
// active or deleted contacts. It returns how many contacts were created.
func Import(ctx context.Context, f *File, contacts *services.Contacts) (int, error) {
	active, err := contacts.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	deleted, err := contacts.ListDeleted(ctx)
	if err != nil {
		return 0, err
	}
	if len(active) > 0 || len(deleted) > 0 {
		return 0, nil
	}

	for i, c := range f.Contacts {
		created, err := contacts.Create(ctx, services.CreateParams{
			Name:   c.Name,
			Phone:  c.Phone,
			Email:  c.Email,
			SaveTo: ds.SaveTo(c.SaveTo),
		})
		if err != nil {
			return i, fmt.Errorf("seed contact %d: %w", i, err)
		}
		if !c.Favourite && !c.Blocked {
			continue
		}
		_, err = contacts.Update(ctx, created.ID, services.UpdateParams{
			IsFavourite: &c.Favourite,
			IsBlocked:   &c.Blocked,
		})
		if err != nil {
			return i, fmt.Errorf("seed contact %d: %w", i, err)
		}
	}
	return len(f.Contacts), nil
}

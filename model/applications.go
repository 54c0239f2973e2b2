package model

import (
	"encoding/json"
	"strings"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/storage"
)

// SetApplication persists an application. First save assigns an id via the
// conditional-put primitive; a secret is assigned whenever absent. Existing
// applications are merged by id so policies can be updated in place.
func (a *Accessor) SetApplication(application *applications.Application) (*applications.Application, error) {
	table := a.applications()
	app := *application

	if app.ID == "" {
		app.CreationDate = a.nowTime()
		if app.Secret == "" {
			secret, err := storage.GenerateToken(clientIDLength)
			if err != nil {
				return nil, err
			}
			app.Secret = secret
		}
		id, err := insertWithGeneratedID(table, clientIDLength, func(id string) ([]byte, error) {
			app.ID = id
			return marshal(&app)
		})
		if err != nil {
			return nil, err
		}
		app.ID = id
	} else {
		stored, err := a.GetApplication(app.ID, "")
		if err != nil {
			return nil, err
		}
		if stored != nil {
			if app.Secret == "" {
				app.Secret = stored.Secret
			}
			if app.CreationDate.IsZero() {
				app.CreationDate = stored.CreationDate
			}
		}
		doc, err := marshal(&app)
		if err != nil {
			return nil, err
		}
		if err := table.SetItem(app.ID, doc); err != nil {
			return nil, err
		}
	}
	if err := a.store.Flush(); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetApplication looks an application up by id. The secret check is only
// enforced when a secret is supplied. Returns nil when absent or mismatched.
func (a *Accessor) GetApplication(id, secret string) (*applications.Application, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := a.applications().GetItem(id)
	if err != nil || doc == nil {
		return nil, err
	}
	var app applications.Application
	if err := unmarshal(doc, &app); err != nil {
		return nil, err
	}
	if !utils.StringIsEmpty(secret) && app.Secret != secret {
		return nil, nil
	}
	return &app, nil
}

// GetApplicationByName scans for an application with the given name.
func (a *Accessor) GetApplicationByName(name string) (*applications.Application, error) {
	var found *applications.Application
	_, err := a.applications().NextItem(func(doc []byte) bool {
		var app applications.Application
		if json.Unmarshal(doc, &app) != nil {
			return false
		}
		if strings.EqualFold(app.Name, name) {
			found = &app
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

package api

import (
	"context"
	"net/http"
)

// Pet is a pet profile owned by the authenticated account.
type Pet struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Species   string  `json:"species,omitempty"`
	Breed     string  `json:"breed,omitempty"`
	BirthDate string  `json:"birthDate,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
}

// ListPets returns the pet profiles of the authenticated account.
func (c *Client) ListPets(ctx context.Context) ([]Pet, error) {
	var pets []Pet
	if err := c.do(ctx, http.MethodGet, "/pets", nil, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// GetPet fetches one pet profile.
func (c *Client) GetPet(ctx context.Context, id string) (*Pet, error) {
	var pet Pet
	if err := c.do(ctx, http.MethodGet, "/pets/"+id, nil, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// CreatePet registers a new pet profile.
func (c *Client) CreatePet(ctx context.Context, pet Pet) (*Pet, error) {
	var created Pet
	if err := c.do(ctx, http.MethodPost, "/pets", pet, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

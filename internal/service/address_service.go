package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

// AddressService manages the user's address book. A user with addresses
// always has one default: the first address saved becomes it, and choosing
// a new default clears the previous one.
type AddressService struct {
	tx        TxRunner
	addresses AddressRepo
	log       *zap.Logger
}

func NewAddressService(tx TxRunner, addresses AddressRepo, log *zap.Logger) *AddressService {
	return &AddressService{tx: tx, addresses: addresses, log: log}
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]models.Address, error) {
	list, err := s.addresses.List(ctx, userID)
	if err != nil {
		return nil, apperr.Backend("could not list addresses", err)
	}
	return list, nil
}

func checkAddress(in *models.AddressInput) error {
	in.Normalize()
	if !in.HasMinimum() {
		return apperr.Validation("incomplete_address", "street, city and postal code are required")
	}
	return nil
}

func (s *AddressService) ensureUnique(ctx context.Context, userID int64, in *models.AddressInput, excludeID int64) error {
	dup, err := s.addresses.FindDuplicate(ctx, userID, in.Street, in.City, in.PostalCode, excludeID)
	if err != nil {
		return apperr.Backend("could not check address", err)
	}
	if dup != nil {
		return apperr.Conflict("duplicate_address", "this address is already saved")
	}
	return nil
}

func (s *AddressService) Create(ctx context.Context, userID int64, in models.AddressInput) (*models.Address, error) {
	if err := checkAddress(&in); err != nil {
		return nil, err
	}

	var created *models.Address
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, userID, &in, 0); err != nil {
			return err
		}
		n, err := s.addresses.Count(ctx, userID)
		if err != nil {
			return apperr.Backend("could not count addresses", err)
		}
		if n == 0 {
			in.IsDefault = true
		}
		if in.IsDefault {
			if err := s.addresses.ClearDefault(ctx, userID); err != nil {
				return apperr.Backend("could not update default address", err)
			}
		}
		created, err = s.addresses.Create(ctx, in.ToAddress(userID))
		if err != nil {
			return apperr.Backend("could not save address", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id int64, in models.AddressInput) (*models.Address, error) {
	if err := checkAddress(&in); err != nil {
		return nil, err
	}

	var updated *models.Address
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.addresses.Get(ctx, userID, id)
		if err != nil {
			return apperr.Backend("could not load address", err)
		}
		if existing == nil {
			return apperr.NotFound("address_not_found", "address not found")
		}
		if err := s.ensureUnique(ctx, userID, &in, id); err != nil {
			return err
		}
		if in.IsDefault && !existing.IsDefault {
			if err := s.addresses.ClearDefault(ctx, userID); err != nil {
				return apperr.Backend("could not update default address", err)
			}
		}

		a := in.ToAddress(userID)
		a.ID = id
		updated, err = s.addresses.Update(ctx, a)
		if err != nil {
			return apperr.Backend("could not save address", err)
		}
		if updated == nil {
			return apperr.NotFound("address_not_found", "address not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the address. When it was the default, the oldest remaining
// address takes over.
func (s *AddressService) Delete(ctx context.Context, userID, id int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		removed, err := s.addresses.Delete(ctx, userID, id)
		if err != nil {
			return apperr.Backend("could not delete address", err)
		}
		if removed == nil {
			return apperr.NotFound("address_not_found", "address not found")
		}
		if removed.IsDefault {
			if err := s.addresses.PromoteOldest(ctx, userID); err != nil {
				return apperr.Backend("could not update default address", err)
			}
		}
		return nil
	})
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.addresses.Get(ctx, userID, id)
		if err != nil {
			return apperr.Backend("could not load address", err)
		}
		if a == nil {
			return apperr.NotFound("address_not_found", "address not found")
		}
		if err := s.addresses.ClearDefault(ctx, userID); err != nil {
			return apperr.Backend("could not update default address", err)
		}
		if _, err := s.addresses.MarkDefault(ctx, userID, id); err != nil {
			return apperr.Backend("could not update default address", err)
		}
		return nil
	})
}

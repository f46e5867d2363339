package usecase

import (
	"context"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
)

type AddressUsecase struct {
	tx repo.TransactionManager
}

func NewAddressUsecase(tx repo.TransactionManager) *AddressUsecase {
	return &AddressUsecase{tx: tx}
}

type CreateAddressInput struct {
	Name       string `json:"name"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (u *AddressUsecase) CreateAddress(ctx context.Context, userID int64, in CreateAddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.Name == "" || in.PostalCode == "" || in.Country == "" || in.City == "" || in.Line1 == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, CodeInvalidInput, "missing required address fields")
	}

	var created model.Address

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		a, err := r.Addresses().Create(ctx, model.Address{
			UserID:     userID,
			Name:       in.Name,
			PostalCode: in.PostalCode,
			Country:    in.Country,
			State:      in.State,
			City:       in.City,
			Line1:      in.Line1,
			Line2:      in.Line2,
			Phone:      in.Phone,
			IsDefault:  in.IsDefault,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		created = a
		return nil
	})

	if err != nil {
		return model.Address{}, err
	}
	return created, nil
}

func (u *AddressUsecase) ListMyAddresses(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	var addrs []model.Address

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		list, err := r.Addresses().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeDBError, "db error")
		}
		addrs = list
		return nil
	})

	if err != nil {
		return nil, err
	}
	return addrs, nil
}

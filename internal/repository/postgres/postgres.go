package postgres

import (
	"database/sql"

	"hiringhall-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.BookRepository
	repository.RegistrationRepository
	repository.RequestRepository
	repository.DispatchRepository
	repository.BidRepository
	repository.BlackoutRepository
	repository.SuspensionRepository
	repository.ActivityRepository
	repository.ClaimRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		BookRepository:         NewBookRepository(db),
		RegistrationRepository: NewRegistrationRepository(db),
		RequestRepository:      NewRequestRepository(db),
		DispatchRepository:     NewDispatchRepository(db),
		BidRepository:          NewBidRepository(db),
		BlackoutRepository:     NewBlackoutRepository(db),
		SuspensionRepository:   NewSuspensionRepository(db),
		ActivityRepository:     NewActivityRepository(db),
		ClaimRepository:        NewClaimRepository(db),
	}
}

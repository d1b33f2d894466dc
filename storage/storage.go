// Package storage wraps the gorm handle behind the small set of operations
// the handlers need: add, update, delete, find by id, query by kind and
// transactions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/caresync/caresync-api/model"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownKind is returned by All for a kind outside the enumeration.
var ErrUnknownKind = errors.New("unknown entity kind")

// Kind names a queryable entity type.
type Kind string

const (
	KindUser             Kind = "user"
	KindPatient          Kind = "patient"
	KindDoctor           Kind = "doctor"
	KindEmergencyContact Kind = "emergency_contact"
)

// Kinds returns every kind All understands.
func Kinds() []Kind {
	return []Kind{KindUser, KindPatient, KindDoctor, KindEmergencyContact}
}

// Storage is a database session. Each Add, Update and Delete is its own unit
// of work; use Transaction to group several.
type Storage struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New wraps db.
func New(db *gorm.DB, log zerolog.Logger) *Storage {
	return &Storage{db: db, log: log.With().Str("component", "storage").Logger()}
}

// WithContext returns a session bound to ctx, typically the request context.
func (s *Storage) WithContext(ctx context.Context) *Storage {
	return &Storage{db: s.db.WithContext(ctx), log: s.log}
}

// Add inserts obj. Associations are never written implicitly.
func (s *Storage) Add(obj interface{}) error {
	if err := s.db.Omit(clause.Associations).Create(obj).Error; err != nil {
		s.logFailure("add", obj, err)
		return err
	}
	return nil
}

// Update writes every column of obj.
func (s *Storage) Update(obj interface{}) error {
	if err := s.db.Omit(clause.Associations).Save(obj).Error; err != nil {
		s.logFailure("update", obj, err)
		return err
	}
	return nil
}

// Delete removes obj by its primary key.
func (s *Storage) Delete(obj interface{}) error {
	if err := s.db.Delete(obj).Error; err != nil {
		s.logFailure("delete", obj, err)
		return err
	}
	return nil
}

// FindByID loads the row whose primary key equals id into dst, preloading
// the named associations. It returns gorm.ErrRecordNotFound when absent.
func (s *Storage) FindByID(dst interface{}, id string, preloads ...string) error {
	q := s.db.Model(dst)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	return q.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).First(dst).Error
}

// Query starts a query scoped to the table of m.
func (s *Storage) Query(m interface{}) *gorm.DB {
	return s.db.Model(m)
}

// Transaction runs fn inside a database transaction. fn receives a session
// bound to the transaction; returning an error rolls everything back.
func (s *Storage) Transaction(fn func(tx *Storage) error) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx, log: s.log})
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("transaction rolled back")
	}
	return err
}

// All returns every row of the given kind keyed "<Type>.<id>".
func (s *Storage) All(kind Kind) (map[string]interface{}, error) {
	switch kind {
	case KindUser:
		return collect(s.db, "User", func(u model.User) string { return u.ID })
	case KindPatient:
		return collect(s.db, "Patient", func(p model.Patient) string { return p.UserID })
	case KindDoctor:
		return collect(s.db, "Doctor", func(d model.Doctor) string { return d.UserID })
	case KindEmergencyContact:
		return collect(s.db, "EmergencyContact", func(e model.EmergencyContact) string { return e.ID })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func collect[T any](db *gorm.DB, typeName string, id func(T) string) (map[string]interface{}, error) {
	var rows []T
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(rows))
	for _, r := range rows {
		out[typeName+"."+id(r)] = r
	}
	return out, nil
}

func (s *Storage) logFailure(op string, obj interface{}, err error) {
	s.log.Error().Err(err).Str("op", op).Str("entity", entityName(obj)).Msg("database write failed, rolled back")
}

func entityName(obj interface{}) string {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"cloud.google.com/go/firestore"
	"github.com/shenikar/silent_signal_system/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore - реализация AlertStore поверх Cloud Firestore
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: collection,
	}
}

// Create создает новый документ тревоги. ID назначается Firestore,
// время создания - серверными часами (serverTimestamp).
func (s *FirestoreStore) Create(ctx context.Context, alert *models.Alert) error {
	ref := s.client.Collection(s.collection).NewDoc()
	if _, err := ref.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create alert document: %w", err)
	}
	alert.ID = ref.ID
	return nil
}

// Patch выполняет частичное обновление документа по id
func (s *FirestoreStore) Patch(ctx context.Context, id string, patch Patch) error {
	updates := make([]firestore.Update, 0, len(patch))
	for field, value := range patch {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}

	ref := s.client.Collection(s.collection).Doc(id)
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("alert with id %s not found for patch", id)
		}
		return fmt.Errorf("failed to patch alert document: %w", err)
	}
	return nil
}

// Subscribe держит live-запрос открытым до отмены контекста.
// Каждое уведомление доставляет полный результат выборки и список изменений.
func (s *FirestoreStore) Subscribe(ctx context.Context, q Query, fn SnapshotHandler) error {
	query := s.client.Collection(s.collection).Query
	switch len(q.Statuses) {
	case 0:
		// без фильтра
	case 1:
		query = query.Where("status", "==", q.Statuses[0])
	default:
		query = query.Where("status", "in", q.Statuses)
	}
	query = query.OrderBy("timestamp", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	it := query.Snapshots(ctx)
	defer it.Stop()

	for {
		qsnap, err := it.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("alert subscription failed: %w", err)
		}

		snap, err := s.convertSnapshot(qsnap)
		if err != nil {
			return err
		}
		fn(snap)
	}
}

func (s *FirestoreStore) convertSnapshot(qsnap *firestore.QuerySnapshot) (Snapshot, error) {
	docs, err := qsnap.Documents.GetAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot documents: %w", err)
	}

	snap := Snapshot{
		Alerts:  make([]*models.Alert, 0, len(docs)),
		Changes: make([]Change, 0, len(qsnap.Changes)),
	}
	for _, doc := range docs {
		alert := &models.Alert{}
		if err := doc.DataTo(alert); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode alert %s: %w", doc.Ref.ID, err)
		}
		alert.ID = doc.Ref.ID
		snap.Alerts = append(snap.Alerts, alert)
	}

	for _, change := range qsnap.Changes {
		alert := &models.Alert{}
		if err := change.Doc.DataTo(alert); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode changed alert %s: %w", change.Doc.Ref.ID, err)
		}
		alert.ID = change.Doc.Ref.ID

		kind := ChangeModified
		switch change.Kind {
		case firestore.DocumentAdded:
			kind = ChangeAdded
		case firestore.DocumentRemoved:
			kind = ChangeRemoved
		}
		snap.Changes = append(snap.Changes, Change{Kind: kind, Alert: alert})
	}
	return snap, nil
}

var indexURLPattern = regexp.MustCompile(`https://console\.firebase\.google\.com/\S+`)

// MissingIndexURL извлекает из текста ошибки подписки ссылку на создание
// недостающего составного индекса, если она там есть
func MissingIndexURL(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	url := indexURLPattern.FindString(err.Error())
	return url, url != ""
}

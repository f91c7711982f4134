package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cardvault/cardvault-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. They reproduce the storage-level guards the
// real implementations express as Mongo filters: every conditional update
// that matches nothing fails with mongo.ErrNoDocuments.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	incrementErr error // scripted IncrementPoints failure
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.PhoneNumber == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) IncrementPoints(_ context.Context, userID primitive.ObjectID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	user, ok := r.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Points += points
	return nil
}

func (r *fakeUserRepo) DeductPoints(_ context.Context, userID primitive.ObjectID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.Points < points {
		return mongo.ErrNoDocuments
	}
	user.Points -= points
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) EnsureIndexes(context.Context) error { return nil }

type fakeOTPRepo struct {
	mu   sync.Mutex
	otps map[primitive.ObjectID]*models.OTP
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{otps: make(map[primitive.ObjectID]*models.OTP)}
}

func (r *fakeOTPRepo) Replace(_ context.Context, otp *models.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.otps {
		if existing.PhoneNumber == otp.PhoneNumber && existing.Purpose == otp.Purpose && !existing.Verified {
			delete(r.otps, id)
		}
	}
	otp.ID = primitive.NewObjectID()
	otp.CreatedAt = time.Now()
	copied := *otp
	r.otps[otp.ID] = &copied
	return nil
}

func (r *fakeOTPRepo) FindActive(_ context.Context, phone, purpose string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, otp := range r.otps {
		if otp.PhoneNumber == phone && otp.Purpose == purpose && !otp.Verified &&
			time.Since(otp.CreatedAt) < models.OTPExpiry {
			copied := *otp
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeOTPRepo) RegisterFailedAttempt(_ context.Context, id primitive.ObjectID) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.otps[id]
	if !ok || otp.Attempts >= models.MaxOTPAttempts {
		return nil, mongo.ErrNoDocuments
	}
	otp.Attempts++
	now := time.Now()
	otp.LastAttemptAt = &now
	copied := *otp
	return &copied, nil
}

func (r *fakeOTPRepo) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.otps[id]
	if !ok || otp.Verified {
		return mongo.ErrNoDocuments
	}
	otp.Verified = true
	return nil
}

func (r *fakeOTPRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.otps, id)
	return nil
}

func (r *fakeOTPRepo) EnsureIndexes(context.Context) error { return nil }

// active returns the unverified records for a phone, for assertions on the
// supersede behavior.
func (r *fakeOTPRepo) active(phone string) []*models.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OTP
	for _, otp := range r.otps {
		if otp.PhoneNumber == phone && !otp.Verified {
			copied := *otp
			out = append(out, &copied)
		}
	}
	return out
}

type fakeCardRepo struct {
	mu    sync.Mutex
	cards map[primitive.ObjectID]*models.CreditCard
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: make(map[primitive.ObjectID]*models.CreditCard)}
}

func (r *fakeCardRepo) Create(_ context.Context, card *models.CreditCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card.ID = primitive.NewObjectID()
	card.CreatedAt = time.Now()
	copied := *card
	r.cards[card.ID] = &copied
	return nil
}

func (r *fakeCardRepo) FindByIDAndUser(_ context.Context, id, userID primitive.ObjectID) (*models.CreditCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[id]
	if !ok || card.UserID != userID {
		return nil, mongo.ErrNoDocuments
	}
	copied := *card
	return &copied, nil
}

func (r *fakeCardRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.CreditCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CreditCard
	for _, card := range r.cards {
		if card.UserID == userID {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[id]
	if !ok || card.UserID != userID {
		return mongo.ErrNoDocuments
	}
	delete(r.cards, id)
	return nil
}

func (r *fakeCardRepo) ReserveCredit(_ context.Context, cardID primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[cardID]
	if !ok || !card.IsActive || card.AvailableCredit < amount {
		return mongo.ErrNoDocuments
	}
	card.AvailableCredit -= amount
	return nil
}

func (r *fakeCardRepo) ReleaseCredit(_ context.Context, cardID primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[cardID]
	if !ok || card.AvailableCredit+amount > card.CreditLimit {
		return mongo.ErrNoDocuments
	}
	card.AvailableCredit += amount
	return nil
}

type fakeTransactionRepo struct {
	mu  sync.Mutex
	txs map[primitive.ObjectID]*models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txs: make(map[primitive.ObjectID]*models.Transaction)}
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = primitive.NewObjectID()
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}
	tx.CreatedAt = time.Now()
	copied := *tx
	r.txs[tx.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) FindByIDAndUser(_ context.Context, id, userID primitive.ObjectID) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok || tx.UserID != userID {
		return nil, mongo.ErrNoDocuments
	}
	copied := *tx
	return &copied, nil
}

func (r *fakeTransactionRepo) FindByUserID(_ context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error) {
	all := r.sortedByDate(userID, "")
	start := (page - 1) * limit
	if start >= len(all) {
		return []*models.Transaction{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *fakeTransactionRepo) FindCompletedByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.Transaction, error) {
	return r.sortedByDate(userID, models.StatusCompleted), nil
}

func (r *fakeTransactionRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok || tx.Status != models.StatusPending {
		return mongo.ErrNoDocuments
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTransactionRepo) EnsureIndexes(context.Context) error { return nil }

func (r *fakeTransactionRepo) sortedByDate(userID primitive.ObjectID, status string) []*models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range r.txs {
		if tx.UserID != userID {
			continue
		}
		if status != "" && tx.Status != status {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

type fakeRewardEventRepo struct {
	mu     sync.Mutex
	events []*models.RewardEvent
}

func newFakeRewardEventRepo() *fakeRewardEventRepo {
	return &fakeRewardEventRepo{}
}

func (r *fakeRewardEventRepo) Create(_ context.Context, event *models.RewardEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.TransactionID != nil {
		for _, existing := range r.events {
			if existing.TransactionID != nil && *existing.TransactionID == *event.TransactionID {
				return mongo.CommandError{Code: 11000, Message: "duplicate key"}
			}
		}
	}
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *fakeRewardEventRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, event := range r.events {
		if event.ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeRewardEventRepo) FindByTransactionID(_ context.Context, txID primitive.ObjectID) (*models.RewardEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.TransactionID != nil && *event.TransactionID == txID {
			copied := *event
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeRewardEventRepo) FindByUserID(_ context.Context, userID primitive.ObjectID, page, limit int) ([]*models.RewardEvent, error) {
	all, _ := r.FindAllByUserID(context.Background(), userID)
	start := (page - 1) * limit
	if start >= len(all) {
		return []*models.RewardEvent{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *fakeRewardEventRepo) FindAllByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.RewardEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RewardEvent
	for _, event := range r.events {
		if event.UserID == userID {
			copied := *event
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeRewardEventRepo) EnsureIndexes(context.Context) error { return nil }

// fakeGateway records dispatched codes and can be told to fail.
type fakeGateway struct {
	mu    sync.Mutex
	sent  []string
	codes map[string]string
	fail  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{codes: make(map[string]string)}
}

func (g *fakeGateway) SendOTP(phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return fmt.Errorf("gateway unavailable")
	}
	g.sent = append(g.sent, phone)
	g.codes[phone] = code
	return nil
}

func (g *fakeGateway) lastCode(phone string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codes[phone]
}

func (g *fakeGateway) sentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/payment"
)

// fakeStore is an in-memory OrderStore.
type fakeStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]models.Order

	insertErr error

	// raceTo, when set, flips the order to that status right before the
	// first transition attempt, simulating a concurrent confirmation that
	// won the conditional write.
	raceTo models.OrderStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[primitive.ObjectID]models.Order)}
}

func (s *fakeStore) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return primitive.NilObjectID, s.insertErr
	}
	id := primitive.NewObjectID()
	order.ID = id
	s.orders[id] = *order
	return id, nil
}

func (s *fakeStore) FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.UserID != userID {
		return nil, nil
	}
	out := order
	return &out, nil
}

func (s *fakeStore) TransitionFromPending(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	if s.raceTo != "" {
		order.Status = s.raceTo
		s.orders[id] = order
		s.raceTo = ""
	}
	if order.Status != models.OrderPending {
		return false, nil
	}
	order.Status = status
	s.orders[id] = order
	return true, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// fakeGateway mints uuid intent ids and serves scripted statuses.
type fakeGateway struct {
	mu            sync.Mutex
	statuses      map[string]string
	createErr     error
	retrieveErr   error
	lastAmount    int64
	lastMetadata  map[string]string
	retrieveCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]string)}
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	id := "pi_" + uuid.NewString()
	g.statuses[id] = "requires_payment_method"
	g.lastAmount = amount
	g.lastMetadata = metadata
	return &payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) RetrieveIntent(ctx context.Context, intentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveCalls++
	if g.retrieveErr != nil {
		return "", g.retrieveErr
	}
	status, ok := g.statuses[intentID]
	if !ok {
		return "", &payment.Error{Op: "retrieve intent", Err: errors.New("no such intent")}
	}
	return status, nil
}

func (g *fakeGateway) settle(intentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[intentID] = status
}

func newService(store *fakeStore, gateway *fakeGateway) *Service {
	return &Service{Orders: store, Gateway: gateway, Currency: "usd"}
}

func cartFixture() []models.OrderItem {
	return []models.OrderItem{
		{Product: primitive.NewObjectID(), Name: "hoodie", Slug: "hoodie", Quantity: 2, UnitPrice: 10},
		{Product: primitive.NewObjectID(), Name: "cap", Slug: "cap", Quantity: 1, UnitPrice: 5},
	}
}

func TestCreateCheckoutComputesTotalsAndBindsIntent(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order, err := svc.CreateCheckout(context.Background(), userID, cartFixture())
	require.NoError(t, err)

	assert.Equal(t, 25.0, order.Subtotal)
	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, userID, order.UserID)
	assert.NotEmpty(t, order.PaymentIntentID)
	assert.NotEmpty(t, order.ClientSecret)
	assert.Equal(t, int64(2500), gateway.lastAmount)
	assert.Equal(t, userID.Hex(), gateway.lastMetadata["user_id"])

	stored, err := store.FindByID(context.Background(), order.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, order.PaymentIntentID, stored.PaymentIntentID)
	assert.Len(t, stored.Items, 2)
}

func TestCreateCheckoutEmptyCart(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, newFakeGateway())

	_, err := svc.CreateCheckout(context.Background(), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, store.count())
}

func TestCreateCheckoutInvalidLineItems(t *testing.T) {
	tests := []struct {
		name string
		item models.OrderItem
	}{
		{"zero quantity", models.OrderItem{Name: "hoodie", Quantity: 0, UnitPrice: 10}},
		{"negative quantity", models.OrderItem{Name: "hoodie", Quantity: -1, UnitPrice: 10}},
		{"zero price", models.OrderItem{Name: "hoodie", Quantity: 1, UnitPrice: 0}},
		{"negative price", models.OrderItem{Name: "hoodie", Quantity: 1, UnitPrice: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newService(store, newFakeGateway())

			_, err := svc.CreateCheckout(context.Background(), primitive.NewObjectID(), []models.OrderItem{tt.item})
			assert.ErrorIs(t, err, ErrInvalidLineItem)
			assert.Equal(t, 0, store.count())
		})
	}
}

func TestCreateCheckoutGatewayFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	gateway.createErr = &payment.Error{Op: "create intent", Err: errors.New("connection refused")}
	svc := newService(store, gateway)

	_, err := svc.CreateCheckout(context.Background(), primitive.NewObjectID(), cartFixture())

	var gatewayErr *payment.Error
	assert.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, 0, store.count())
}

type fixedPricer struct {
	price float64
	err   error
}

func (p fixedPricer) UnitPrice(ctx context.Context, productID primitive.ObjectID) (float64, error) {
	return p.price, p.err
}

func TestCreateCheckoutRepriceOverridesClientPrices(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	svc.Reprice = true
	svc.Pricer = fixedPricer{price: 8}

	items := []models.OrderItem{
		{Product: primitive.NewObjectID(), Name: "hoodie", Quantity: 3, UnitPrice: 0.01},
	}
	order, err := svc.CreateCheckout(context.Background(), primitive.NewObjectID(), items)
	require.NoError(t, err)

	assert.Equal(t, 24.0, order.Total)
	assert.Equal(t, 8.0, order.Items[0].UnitPrice)
	assert.Equal(t, int64(2400), gateway.lastAmount)
}

func TestCreateCheckoutRepriceUnknownProduct(t *testing.T) {
	svc := newService(newFakeStore(), newFakeGateway())
	svc.Reprice = true
	svc.Pricer = fixedPricer{err: errors.New("not found")}

	_, err := svc.CreateCheckout(context.Background(), primitive.NewObjectID(), cartFixture())
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func checkoutAndSettle(t *testing.T, svc *Service, gateway *fakeGateway, userID primitive.ObjectID, status string) *models.Order {
	t.Helper()
	order, err := svc.CreateCheckout(context.Background(), userID, cartFixture())
	require.NoError(t, err)
	gateway.settle(order.PaymentIntentID, status)
	return order
}

func TestConfirmPaymentSucceeded(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)

	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, confirmed.Status)

	stored, _ := store.FindByID(context.Background(), order.ID, userID)
	assert.Equal(t, models.OrderPaid, stored.Status)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)

	first, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	require.Equal(t, models.OrderPaid, first.Status)
	callsAfterFirst := gateway.retrieveCalls

	second, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, second.Status)
	assert.Equal(t, first.ID, second.ID)
	// Terminal orders short-circuit without another gateway round trip.
	assert.Equal(t, callsAfterFirst, gateway.retrieveCalls)
}

func TestConfirmPaymentIntentMismatch(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)

	_, err := svc.ConfirmPayment(context.Background(), userID, order.ID, "pi_someone_elses")
	assert.ErrorIs(t, err, ErrIntentMismatch)

	stored, _ := store.FindByID(context.Background(), order.ID, userID)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestConfirmPaymentWrongOwner(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	owner := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, owner, payment.StatusSucceeded)

	_, err := svc.ConfirmPayment(context.Background(), primitive.NewObjectID(), order.ID, order.PaymentIntentID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	stored, _ := store.FindByID(context.Background(), order.ID, owner)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestConfirmPaymentMissingOrder(t *testing.T) {
	svc := newService(newFakeStore(), newFakeGateway())

	_, err := svc.ConfirmPayment(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "pi_x")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmPaymentNotSettled(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, "requires_action")

	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "requires_action", declined.Status)
	assert.Equal(t, models.OrderFailed, confirmed.Status)

	stored, _ := store.FindByID(context.Background(), order.ID, userID)
	assert.Equal(t, models.OrderFailed, stored.Status)
}

func TestConfirmPaymentFailedOrderShortCircuits(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, "requires_action")

	_, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	callsAfterFirst := gateway.retrieveCalls

	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, models.OrderFailed, confirmed.Status)
	assert.Equal(t, callsAfterFirst, gateway.retrieveCalls)
}

func TestConfirmPaymentGatewayErrorLeavesOrderPending(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)
	gateway.retrieveErr = &payment.Error{Op: "retrieve intent", Err: errors.New("timeout")}

	_, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	var gatewayErr *payment.Error
	assert.ErrorAs(t, err, &gatewayErr)

	// A timed-out status query is not a payment outcome.
	stored, _ := store.FindByID(context.Background(), order.ID, userID)
	assert.Equal(t, models.OrderPending, stored.Status)

	// The client retries once the gateway is back.
	gateway.retrieveErr = nil
	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, confirmed.Status)
}

type countingNotifier struct {
	mu   sync.Mutex
	paid int
	last models.Order
}

func (n *countingNotifier) OrderPaid(order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid++
	n.last = order
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.paid
}

func TestConfirmPaymentNotifiesOnceOnRetry(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	notifier := &countingNotifier{}
	svc := newService(store, gateway)
	svc.Notifier = notifier
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)

	_, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, models.OrderPaid, notifier.last.Status)

	// Retrying confirmation on the settled order must not notify again.
	_, err = svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count())
}

func TestConfirmPaymentDeclinedDoesNotNotify(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	notifier := &countingNotifier{}
	svc := newService(store, gateway)
	svc.Notifier = notifier
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, "requires_action")

	_, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, 0, notifier.count())
}

func TestConfirmPaymentLostRaceDoesNotNotify(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	notifier := &countingNotifier{}
	svc := newService(store, gateway)
	svc.Notifier = notifier
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)
	store.raceTo = models.OrderPaid

	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, confirmed.Status)
	// The confirmation that won the conditional write owns the notification.
	assert.Equal(t, 0, notifier.count())
}

func TestConfirmPaymentLostRaceReportsWinner(t *testing.T) {
	store := newFakeStore()
	gateway := newFakeGateway()
	svc := newService(store, gateway)
	userID := primitive.NewObjectID()

	order := checkoutAndSettle(t, svc, gateway, userID, payment.StatusSucceeded)
	store.raceTo = models.OrderPaid

	confirmed, err := svc.ConfirmPayment(context.Background(), userID, order.ID, order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, confirmed.Status)
}

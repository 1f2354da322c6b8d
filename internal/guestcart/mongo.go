package guestcart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

const collectionName = "guest_carts"

type cartDoc struct {
	GuestID   string    `bson:"_id"`
	Items     []itemDoc `bson:"items"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type itemDoc struct {
	Kind      string `bson:"kind"`
	ID        int64  `bson:"item_id"`
	Name      string `bson:"name,omitempty"`
	Quantity  int    `bson:"quantity"`
	UnitPrice string `bson:"unit_price"`
	ImageURL  string `bson:"image_url,omitempty"`
}

// MongoStore keeps one document per guest. A TTL index on updated_at lets
// MongoDB expire abandoned carts.
type MongoStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewMongoStore(db *mongo.Database, ttl time.Duration) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName), ttl: ttl}
}

// EnsureIndexes creates the expiry index. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())).SetName("guest_cart_ttl"),
	})
	return errors.Wrap(err, "create guest cart ttl index")
}

func (s *MongoStore) Load(ctx context.Context, guestID string) ([]models.CartLine, error) {
	var doc cartDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": guestID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load guest cart")
	}
	return fromDoc(doc)
}

func (s *MongoStore) Save(ctx context.Context, guestID string, lines []models.CartLine) error {
	if len(lines) == 0 {
		return s.Delete(ctx, guestID)
	}
	doc := toDoc(guestID, lines, time.Now().UTC())
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": guestID}, doc, options.Replace().SetUpsert(true))
	return errors.Wrap(err, "save guest cart")
}

func (s *MongoStore) Delete(ctx context.Context, guestID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": guestID})
	return errors.Wrap(err, "delete guest cart")
}

func toDoc(guestID string, lines []models.CartLine, now time.Time) cartDoc {
	doc := cartDoc{GuestID: guestID, UpdatedAt: now, Items: make([]itemDoc, 0, len(lines))}
	for _, l := range lines {
		doc.Items = append(doc.Items, itemDoc{
			Kind:      string(l.Item.Kind),
			ID:        l.Item.ID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
			ImageURL:  l.ImageURL,
		})
	}
	return doc
}

func fromDoc(doc cartDoc) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0, len(doc.Items))
	for _, it := range doc.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, errors.Wrapf(err, "guest cart %s: bad unit price", doc.GuestID)
		}
		lines = append(lines, models.CartLine{
			Item:      models.ItemRef{Kind: models.ItemKind(it.Kind), ID: it.ID},
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
			ImageURL:  it.ImageURL,
		})
	}
	return lines, nil
}

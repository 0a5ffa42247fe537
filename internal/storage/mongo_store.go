package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pagebuilder/internal/domain"
)

// MongoStore implements domain.PageStore on MongoDB with a pages and a
// page_revisions collection.
type MongoStore struct {
	client    *mongo.Client
	pages     *mongo.Collection
	revisions *mongo.Collection
}

type pageDoc struct {
	ID          string     `bson:"_id"`
	Slug        string     `bson:"slug"`
	Title       string     `bson:"title"`
	Status      string     `bson:"status"`
	Revision    int        `bson:"revision"`
	Content     string     `bson:"content"`
	PublishedAt *time.Time `bson:"publishedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func (d pageDoc) page() domain.Page {
	p := domain.Page{
		ID:        d.ID,
		Slug:      d.Slug,
		Title:     d.Title,
		Status:    domain.PageStatus(d.Status),
		Revision:  d.Revision,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.PublishedAt != nil {
		t := d.PublishedAt.UTC()
		p.PublishedAt = &t
	}
	return p
}

type revisionDoc struct {
	ID        string    `bson:"_id"`
	PageID    string    `bson:"pageId"`
	Revision  int       `bson:"revision"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d revisionDoc) revision() domain.Revision {
	return domain.Revision{ID: d.ID, PageID: d.PageID, Revision: d.Revision, Content: d.Content, CreatedAt: d.CreatedAt.UTC()}
}

// OpenMongo connects to uri. The database is the URI path, "pagebuilder"
// when the URI has none.
func OpenMongo(ctx context.Context, uri string, logger *slog.Logger) (*MongoStore, error) {
	dbName := mongoDatabase(uri)
	logger.Info("[MONGO] connecting", "database", dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{client: client, pages: db.Collection("pages"), revisions: db.Collection("page_revisions")}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func mongoDatabase(uri string) string {
	if u, err := url.Parse(uri); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "pagebuilder"
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.pages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create slug index: %w", err)
	}
	if _, err := s.revisions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "revision", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create revision index: %w", err)
	}
	return nil
}

func (s *MongoStore) CreatePage(ctx context.Context, p *domain.Page) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = domain.PageStatusDraft
	}
	now := domain.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.pages.InsertOne(ctx, pageDoc{
		ID: p.ID, Slug: p.Slug, Title: p.Title, Status: string(p.Status), Revision: p.Revision,
		Content: p.Content, PublishedAt: p.PublishedAt, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *MongoStore) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	return s.findPage(ctx, bson.M{"_id": id}, id)
}

func (s *MongoStore) GetPageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	return s.findPage(ctx, bson.M{"slug": slug}, slug)
}

func (s *MongoStore) findPage(ctx context.Context, filter bson.M, key string) (*domain.Page, error) {
	var d pageDoc
	err := s.pages.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get page %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	p := d.page()
	return &p, nil
}

func (s *MongoStore) ListPages(ctx context.Context) ([]domain.Page, error) {
	cur, err := s.pages.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var docs []pageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	pages := make([]domain.Page, len(docs))
	for i, d := range docs {
		pages[i] = d.page()
	}
	return pages, nil
}

func (s *MongoStore) RenamePage(ctx context.Context, id, title, slug string) error {
	res, err := s.pages.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title": title, "slug": slug, "updatedAt": domain.Now(),
	}})
	if err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeletePage(ctx context.Context, id string) error {
	res, err := s.pages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("page %s: %w", id, domain.ErrNotFound)
	}
	if _, err := s.revisions.DeleteMany(ctx, bson.M{"pageId": id}); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveContent(ctx context.Context, pageID, content string) (time.Time, error) {
	now := domain.Now()
	var d pageDoc
	err := s.pages.FindOneAndUpdate(ctx,
		bson.M{"_id": pageID},
		bson.M{"$set": bson.M{"content": content, "updatedAt": now}, "$inc": bson.M{"revision": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("save content: %w", err)
	}
	if _, err := s.revisions.InsertOne(ctx, revisionDoc{
		ID: uuid.New().String(), PageID: pageID, Revision: d.Revision, Content: content, CreatedAt: now,
	}); err != nil {
		return time.Time{}, fmt.Errorf("insert revision: %w", err)
	}
	return now, nil
}

func (s *MongoStore) LoadContent(ctx context.Context, pageID string) (string, error) {
	p, err := s.GetPage(ctx, pageID)
	if err != nil {
		return "", err
	}
	return p.Content, nil
}

func (s *MongoStore) Publish(ctx context.Context, pageID string) error {
	now := domain.Now()
	res, err := s.pages.UpdateOne(ctx, bson.M{"_id": pageID}, bson.M{"$set": bson.M{
		"status": string(domain.PageStatusPublished), "publishedAt": now, "updatedAt": now,
	}})
	if err != nil {
		return fmt.Errorf("publish page: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) ListRevisions(ctx context.Context, pageID string) ([]domain.Revision, error) {
	cur, err := s.revisions.Find(ctx, bson.M{"pageId": pageID}, options.Find().SetSort(bson.D{{Key: "revision", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	var docs []revisionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode revisions: %w", err)
	}
	revs := make([]domain.Revision, len(docs))
	for i, d := range docs {
		revs[i] = d.revision()
	}
	return revs, nil
}

func (s *MongoStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	var d revisionDoc
	err := s.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	r := d.revision()
	return &r, nil
}

func (s *MongoStore) PruneRevisions(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	cur, err := s.pages.Find(ctx, bson.M{"revision": bson.M{"$gt": keep}},
		options.Find().SetProjection(bson.M{"_id": 1, "revision": 1}))
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	var heads []pageDoc
	if err := cur.All(ctx, &heads); err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	total := 0
	for _, h := range heads {
		res, err := s.revisions.DeleteMany(ctx, bson.M{"pageId": h.ID, "revision": bson.M{"$lte": h.Revision - keep}})
		if err != nil {
			return total, fmt.Errorf("prune revisions of %s: %w", h.ID, err)
		}
		total += int(res.DeletedCount)
	}
	return total, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

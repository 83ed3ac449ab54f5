package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"blocks/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	collBlockGroups = "block_group"
	collLangs       = "lang"
	collRevisions   = "block_group_revision"
	collCounters    = "counters"
)

type mongoItem struct {
	ItemType string `bson:"item_type"`
	ItemID   int64  `bson:"item_id"`
}

type mongoI18n struct {
	Locale      string `bson:"locale"`
	Title       string `bson:"title"`
	JSONContent string `bson:"json_content"`
}

// mongoBlockGroup embeds translations and item links in one document.
type mongoBlockGroup struct {
	ID      int64       `bson:"_id"`
	Visible bool        `bson:"visible"`
	Slug    string      `bson:"slug"`
	Items   []mongoItem `bson:"items"`
	I18n    []mongoI18n `bson:"i18n"`
}

type mongoLang struct {
	ID        int64  `bson:"_id"`
	Code      string `bson:"code"`
	Locale    string `bson:"locale"`
	Title     string `bson:"title"`
	ByDefault bool   `bson:"by_default"`
	Active    bool   `bson:"active"`
}

// MongoDB holds the client and database used by the Mongo stores.
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri. An empty dbName falls back to the database
// named in the URI path.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	if dbName == "" {
		dbName = mongoDatabaseName(uri)
	}
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
	return &MongoDB{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the client.
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// mongoDatabaseName extracts the path of user:pass@host/DB_NAME?params.
func mongoDatabaseName(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	if i := strings.Index(rest, "@"); i != -1 {
		rest = rest[i+1:]
	}
	if i := strings.Index(rest, "/"); i != -1 {
		name := rest[i+1:]
		if q := strings.Index(name, "?"); q != -1 {
			name = name[:q]
		}
		if name != "" {
			return name
		}
	}
	return "blocks"
}

// nextID returns the next value of the named sequence.
func (m *MongoDB) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := m.db.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", name, err)
	}
	return doc.Seq, nil
}

// ─────────────────────────────────────────────────────────────
// Block groups
// ─────────────────────────────────────────────────────────────

// MongoBlockGroupStore implements domain.BlockGroupStore on MongoDB.
type MongoBlockGroupStore struct {
	m *MongoDB
}

func NewMongoBlockGroupStore(m *MongoDB) *MongoBlockGroupStore {
	return &MongoBlockGroupStore{m: m}
}

var _ domain.BlockGroupStore = (*MongoBlockGroupStore)(nil)

// likeToRegex converts a SQL LIKE pattern to an anchored regex.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func buildMongoFilter(f domain.BlockGroupFilter) bson.D {
	filter := bson.D{}
	if f.ID != nil {
		filter = append(filter, bson.E{Key: "_id", Value: *f.ID})
	}
	if f.Slug != nil {
		filter = append(filter, bson.E{Key: "slug", Value: *f.Slug})
	}
	if f.Visible != nil {
		filter = append(filter, bson.E{Key: "visible", Value: *f.Visible})
	}
	if f.Title != nil {
		filter = append(filter, bson.E{Key: "i18n.title", Value: bson.M{
			"$regex": likeToRegex("%" + *f.Title + "%"), "$options": "is",
		}})
	}
	if f.ItemType != nil {
		match := bson.M{"item_type": *f.ItemType}
		if f.ItemID != nil {
			match["item_id"] = *f.ItemID
		}
		filter = append(filter, bson.E{Key: "items", Value: bson.M{"$elemMatch": match}})
	}
	return filter
}

func buildMongoFindOptions(f domain.BlockGroupFilter) *options.FindOptionsBuilder {
	dir := 1
	if f.Order.Descending() {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: dir}})
	if f.Limit != nil {
		opts.SetLimit(int64(*f.Limit))
	}
	if f.Offset != nil {
		opts.SetSkip(int64(*f.Offset))
	}
	return opts
}

func (s *MongoBlockGroupStore) coll() *mongo.Collection {
	return s.m.db.Collection(collBlockGroups)
}

func (s *MongoBlockGroupStore) FindOne(ctx context.Context, f domain.BlockGroupFilter) (*domain.BlockGroup, error) {
	one := 1
	f.Limit = &one
	groups, err := s.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, domain.ErrNotFound
	}
	return &groups[0], nil
}

func (s *MongoBlockGroupStore) Find(ctx context.Context, f domain.BlockGroupFilter) ([]domain.BlockGroup, error) {
	if f.Limit != nil && *f.Limit == 0 {
		// Mongo reads limit 0 as "no limit"
		return nil, nil
	}
	cursor, err := s.coll().Find(ctx, buildMongoFilter(f), buildMongoFindOptions(f))
	if err != nil {
		return nil, fmt.Errorf("find block groups: %w", err)
	}
	var docs []mongoBlockGroup
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode block groups: %w", err)
	}
	groups := make([]domain.BlockGroup, len(docs))
	for i, d := range docs {
		groups[i] = domain.BlockGroup{ID: d.ID, Visible: d.Visible, Slug: d.Slug}
	}
	return groups, nil
}

func (s *MongoBlockGroupStore) get(ctx context.Context, id int64) (*mongoBlockGroup, error) {
	var doc mongoBlockGroup
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block group %d: %w", id, err)
	}
	return &doc, nil
}

func (s *MongoBlockGroupStore) GetI18n(ctx context.Context, id int64, locale string) (*domain.BlockGroupI18n, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range doc.I18n {
		if t.Locale == locale {
			return &domain.BlockGroupI18n{ID: id, Locale: t.Locale, Title: t.Title, JSONContent: t.JSONContent}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MongoBlockGroupStore) Locales(ctx context.Context, id int64) ([]string, error) {
	doc, err := s.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	locales := make([]string, 0, len(doc.I18n))
	for _, t := range doc.I18n {
		locales = append(locales, t.Locale)
	}
	sort.Strings(locales)
	return locales, nil
}

func (s *MongoBlockGroupStore) Items(ctx context.Context, id int64) ([]domain.ItemBlockGroup, error) {
	doc, err := s.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.ItemBlockGroup{}, nil
	}
	if err != nil {
		return nil, err
	}
	items := make([]domain.ItemBlockGroup, len(doc.Items))
	for i, it := range doc.Items {
		items[i] = domain.ItemBlockGroup{ItemType: it.ItemType, ItemID: it.ItemID}
	}
	return items, nil
}

func (s *MongoBlockGroupStore) Upsert(ctx context.Context, g *domain.BlockGroup, i18n []domain.BlockGroupI18n) error {
	var existing mongoBlockGroup
	err := s.coll().FindOne(ctx, bson.M{"slug": g.Slug}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		id, err := s.m.nextID(ctx, collBlockGroups)
		if err != nil {
			return err
		}
		existing.ID = id
	case err != nil:
		return fmt.Errorf("lookup block group %s: %w", g.Slug, err)
	}

	doc := mongoBlockGroup{ID: existing.ID, Visible: g.Visible, Slug: g.Slug}
	for _, it := range g.ItemBlockGroups {
		doc.Items = append(doc.Items, mongoItem{ItemType: it.ItemType, ItemID: it.ItemID})
	}
	for _, t := range i18n {
		doc.I18n = upsertMongoI18n(doc.I18n, t)
	}
	if _, err := s.coll().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("replace block group %s: %w", g.Slug, err)
	}
	g.ID = doc.ID
	return nil
}

func (s *MongoBlockGroupStore) SaveI18n(ctx context.Context, row domain.BlockGroupI18n) error {
	doc, err := s.get(ctx, row.ID)
	if err != nil {
		return err
	}
	doc.I18n = upsertMongoI18n(doc.I18n, row)
	if _, err := s.coll().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc); err != nil {
		return fmt.Errorf("save i18n %d/%s: %w", row.ID, row.Locale, err)
	}
	return nil
}

func upsertMongoI18n(rows []mongoI18n, t domain.BlockGroupI18n) []mongoI18n {
	next := mongoI18n{Locale: t.Locale, Title: t.Title, JSONContent: t.JSONContent}
	for i := range rows {
		if rows[i].Locale == t.Locale {
			rows[i] = next
			return rows
		}
	}
	return append(rows, next)
}

// ─────────────────────────────────────────────────────────────
// Languages
// ─────────────────────────────────────────────────────────────

// MongoLangStore implements domain.LangStore on MongoDB.
type MongoLangStore struct {
	m *MongoDB
}

func NewMongoLangStore(m *MongoDB) *MongoLangStore {
	return &MongoLangStore{m: m}
}

var _ domain.LangStore = (*MongoLangStore)(nil)

func (l mongoLang) toDomain() domain.Lang {
	return domain.Lang{ID: l.ID, Code: l.Code, Locale: l.Locale, Title: l.Title, ByDefault: l.ByDefault, Active: l.Active}
}

func (s *MongoLangStore) DefaultLang(ctx context.Context) (*domain.Lang, error) {
	var doc mongoLang
	err := s.m.db.Collection(collLangs).FindOne(ctx, bson.M{"by_default": true}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default lang: %w", err)
	}
	l := doc.toDomain()
	return &l, nil
}

func (s *MongoLangStore) ListLangs(ctx context.Context) ([]domain.Lang, error) {
	cursor, err := s.m.db.Collection(collLangs).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list langs: %w", err)
	}
	var docs []mongoLang
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode langs: %w", err)
	}
	langs := make([]domain.Lang, len(docs))
	for i, d := range docs {
		langs[i] = d.toDomain()
	}
	return langs, nil
}

func (s *MongoLangStore) EnsureLang(ctx context.Context, l *domain.Lang) error {
	coll := s.m.db.Collection(collLangs)
	var doc mongoLang
	err := coll.FindOne(ctx, bson.M{"locale": l.Locale}).Decode(&doc)
	if err == nil {
		l.ID = doc.ID
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("lookup lang %s: %w", l.Locale, err)
	}
	id, err := s.m.nextID(ctx, collLangs)
	if err != nil {
		return err
	}
	if l.Code == "" {
		l.Code = localeCode(l.Locale)
	}
	doc = mongoLang{ID: id, Code: l.Code, Locale: l.Locale, Title: l.Title, ByDefault: l.ByDefault, Active: l.Active}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert lang %s: %w", l.Locale, err)
	}
	l.ID = id
	return nil
}

// ─────────────────────────────────────────────────────────────
// Revisions
// ─────────────────────────────────────────────────────────────

// MongoRevisionStore implements domain.RevisionStore on MongoDB.
type MongoRevisionStore struct {
	m *MongoDB
}

func NewMongoRevisionStore(m *MongoDB) *MongoRevisionStore {
	return &MongoRevisionStore{m: m}
}

var _ domain.RevisionStore = (*MongoRevisionStore)(nil)

func (s *MongoRevisionStore) Push(ctx context.Context, groupID int64, locale, label, snapshot string) error {
	id, err := s.m.nextID(ctx, collRevisions)
	if err != nil {
		return err
	}
	coll := s.m.db.Collection(collRevisions)
	rev := domain.Revision{ID: id, BlockGroupID: groupID, Locale: locale, Label: label, SnapshotJSON: snapshot, CreatedAt: time.Now().UTC()}
	if _, err := coll.InsertOne(ctx, rev); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	target := bson.M{"block_group_id": groupID, "locale": locale}
	var keep domain.Revision
	err = coll.FindOne(ctx, target,
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetSkip(maxRevisions-1),
	).Decode(&keep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	_, err = coll.DeleteMany(ctx, bson.M{"block_group_id": groupID, "locale": locale, "_id": bson.M{"$lt": keep.ID}})
	return err
}

func (s *MongoRevisionStore) Pop(ctx context.Context, groupID int64, locale string) (*domain.Revision, error) {
	var rev domain.Revision
	err := s.m.db.Collection(collRevisions).FindOneAndDelete(ctx,
		bson.M{"block_group_id": groupID, "locale": locale},
		options.FindOneAndDelete().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pop revision: %w", err)
	}
	return &rev, nil
}

func (s *MongoRevisionStore) Count(ctx context.Context, groupID int64, locale string) (int, error) {
	n, err := s.m.db.Collection(collRevisions).CountDocuments(ctx, bson.M{"block_group_id": groupID, "locale": locale})
	return int(n), err
}

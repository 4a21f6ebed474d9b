package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names follow the ones already present in existing deployments.
const (
	colUsers     = "users"
	colSeasons   = "farmseasons"
	colTemplates = "plantemplates"
	colLogs      = "logentries"
	colHidden    = "hiddentasks"
	colMaterials = "materials"
	colUsage     = "materialusages"
	colCounters  = "counters"
)

type Mongo struct {
	client    *mongo.Client
	db        *mongo.Database
	users     *mongo.Collection
	seasons   *mongo.Collection
	templates *mongo.Collection
	logs      *mongo.Collection
	hidden    *mongo.Collection
	materials *mongo.Collection
	usage     *mongo.Collection
	counters  *mongo.Collection
}

// OpenMongo connects, pings and ensures indexes.
func OpenMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Unavailable("mongo connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperr.Unavailable("mongo ping", err)
	}
	db := client.Database(dbName)

	m := &Mongo{
		client:    client,
		db:        db,
		users:     db.Collection(colUsers),
		seasons:   db.Collection(colSeasons),
		templates: db.Collection(colTemplates),
		logs:      db.Collection(colLogs),
		hidden:    db.Collection(colHidden),
		materials: db.Collection(colMaterials),
		usage:     db.Collection(colUsage),
		counters:  db.Collection(colCounters),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	// Stamp sequences are unique per season; unstamped entries are not indexed.
	stampSeq := options.Index().SetUnique(true).
		SetPartialFilterExpression(bson.M{"integrity.sequence": bson.M{"$exists": true}})
	plan := map[*mongo.Collection][]mongo.IndexModel{
		m.users:     {unique(bson.D{{Key: "email", Value: 1}})},
		m.templates: {unique(bson.D{{Key: "templateName", Value: 1}})},
		m.seasons: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "isActive", Value: 1}}},
		},
		m.hidden: {unique(bson.D{{Key: "season", Value: 1}, {Key: "taskName", Value: 1}})},
		m.logs: {
			{Keys: bson.D{{Key: "season", Value: 1}, {Key: "taskName", Value: 1}, {Key: "logDate", Value: 1}}},
			{Keys: bson.D{{Key: "season", Value: 1}, {Key: "logType", Value: 1}, {Key: "completedAt", Value: -1}}},
			{Keys: bson.D{{Key: "season", Value: 1}, {Key: "status", Value: 1}, {Key: "completedAt", Value: -1}}},
			{
				Keys:    bson.D{{Key: "season", Value: 1}, {Key: "integrity.sequence", Value: 1}},
				Options: stampSeq,
			},
		},
		m.materials: {
			unique(bson.D{{Key: "materialName", Value: 1}}),
			{
				Keys:    bson.D{{Key: "barcodeNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		m.usage: {
			unique(bson.D{{Key: "user", Value: 1}, {Key: "materialName", Value: 1}}),
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "usageCount", Value: -1}}},
		},
	}
	for col, idx := range plan {
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return apperr.Unavailable("create indexes on "+col.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

// mongoErr maps driver errors onto the apperr kinds.
func mongoErr(op, notFound string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("%s", notFound)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict("%s: duplicate key", op)
	default:
		return apperr.Unavailable(op, err)
	}
}

// ---- seasons ----

func (m *Mongo) CreateSeason(ctx context.Context, s *models.Season) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := m.seasons.InsertOne(ctx, s)
	return mongoErr("insert season", "", err)
}

func (m *Mongo) GetSeason(ctx context.Context, owner, id primitive.ObjectID) (*models.Season, error) {
	var s models.Season
	err := m.seasons.FindOne(ctx, bson.M{"_id": id, "user": owner}).Decode(&s)
	if err != nil {
		return nil, mongoErr("find season", "season not found", err)
	}
	return &s, nil
}

func (m *Mongo) FindSeason(ctx context.Context, lotCode string) (*models.Season, error) {
	filter := bson.M{"seasonName": lotCode}
	if oid, err := primitive.ObjectIDFromHex(lotCode); err == nil {
		filter = bson.M{"$or": bson.A{bson.M{"_id": oid}, bson.M{"seasonName": lotCode}}}
	}
	var s models.Season
	if err := m.seasons.FindOne(ctx, filter).Decode(&s); err != nil {
		return nil, mongoErr("find season", "season not found", err)
	}
	return &s, nil
}

func (m *Mongo) ListSeasons(ctx context.Context, f SeasonFilter) ([]models.Season, error) {
	filter := bson.M{}
	if f.OwnerID != nil {
		filter["user"] = *f.OwnerID
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	cur, err := m.seasons.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mongoErr("list seasons", "", err)
	}
	defer cur.Close(ctx)

	out := []models.Season{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode seasons", "", err)
	}
	return out, nil
}

// DeleteSeason removes children before the season so a failure half way
// never leaves orphaned log entries or hidden tasks.
func (m *Mongo) DeleteSeason(ctx context.Context, owner, id primitive.ObjectID) error {
	if _, err := m.GetSeason(ctx, owner, id); err != nil {
		return err
	}
	if _, err := m.logs.DeleteMany(ctx, bson.M{"season": id}); err != nil {
		return mongoErr("delete season logs", "", err)
	}
	if _, err := m.hidden.DeleteMany(ctx, bson.M{"season": id}); err != nil {
		return mongoErr("delete season hidden tasks", "", err)
	}
	if _, err := m.counters.DeleteOne(ctx, bson.M{"_id": stampCounter(id)}); err != nil {
		return mongoErr("delete season counters", "", err)
	}
	res, err := m.seasons.DeleteOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return mongoErr("delete season", "", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("season not found")
	}
	return nil
}

// ---- templates ----

func (m *Mongo) CreateTemplate(ctx context.Context, t *models.Template) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := m.templates.InsertOne(ctx, t)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("template %q already exists", t.Name)
	}
	return mongoErr("insert template", "", err)
}

func (m *Mongo) GetTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var t models.Template
	if err := m.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mongoErr("find template", "template not found", err)
	}
	return &t, nil
}

func (m *Mongo) ListTemplates(ctx context.Context) ([]models.Template, error) {
	cur, err := m.templates.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "templateName", Value: 1}}))
	if err != nil {
		return nil, mongoErr("list templates", "", err)
	}
	defer cur.Close(ctx)

	out := []models.Template{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode templates", "", err)
	}
	return out, nil
}

func (m *Mongo) UpdateTemplate(ctx context.Context, t *models.Template) error {
	set := bson.M{
		"templateName": t.Name,
		"cropType":     t.CropType,
		"durationDays": t.DurationDays,
		"stages":       t.Stages,
	}
	res := m.templates.FindOneAndUpdate(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Decode(t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("template %q already exists", t.Name)
		}
		return mongoErr("update template", "template not found", err)
	}
	return nil
}

func (m *Mongo) DeleteTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var t models.Template
	if err := m.templates.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mongoErr("delete template", "template not found", err)
	}
	return &t, nil
}

// ---- logs ----

func (m *Mongo) CreateLog(ctx context.Context, l *models.LogEntry) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.UsedMaterials == nil {
		l.UsedMaterials = []models.UsedMaterial{}
	}
	_, err := m.logs.InsertOne(ctx, l)
	return mongoErr("insert log", "", err)
}

// WriteLog runs the registry writes before the insert. Both are idempotent,
// so when a later step fails a retried request applies them again and
// inserts the entry once.
func (m *Mongo) WriteLog(ctx context.Context, w LogWrite) (LogWriteResult, error) {
	var res LogWriteResult
	l := w.Entry
	if w.Unskip {
		n, err := m.UnhideWhere(ctx, l.SeasonID, l.TaskName, models.HideSkipped)
		if err != nil {
			return LogWriteResult{}, err
		}
		res.Unskipped = n > 0
	}
	if w.Hide != nil {
		existed, err := m.Hide(ctx, *w.Hide)
		if err != nil {
			return LogWriteResult{}, err
		}
		res.HideExisted = existed
	}
	if err := m.CreateLog(ctx, l); err != nil {
		return LogWriteResult{}, err
	}
	return res, nil
}

func (m *Mongo) GetLog(ctx context.Context, id primitive.ObjectID) (*models.LogEntry, error) {
	var l models.LogEntry
	if err := m.logs.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, mongoErr("find log", "log not found", err)
	}
	return &l, nil
}

func (m *Mongo) FindLogs(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	filter := bson.M{}
	if f.SeasonID != nil {
		filter["season"] = *f.SeasonID
	}
	if f.UserID != nil {
		filter["user"] = *f.UserID
	}
	if f.TaskName != "" {
		filter["taskName"] = f.TaskName
	}
	switch {
	case f.LogType != "":
		filter["logType"] = f.LogType
	case f.ExcludeLogType != "":
		filter["logType"] = bson.M{"$ne": f.ExcludeLogType}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CompletedOnly {
		filter["completedAt"] = bson.M{"$exists": true, "$ne": nil}
	}
	if f.Stamped {
		filter["integrity.hash"] = bson.M{"$exists": true}
	}
	date := bson.M{}
	if !f.LoggedFrom.IsZero() {
		date["$gte"] = f.LoggedFrom
	}
	if !f.LoggedTo.IsZero() {
		date["$lt"] = f.LoggedTo
	}
	if len(date) > 0 {
		filter["logDate"] = date
	}

	dir := -1
	if f.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "logDate", Value: dir}, {Key: "_id", Value: dir}})
	cur, err := m.logs.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr("find logs", "", err)
	}
	defer cur.Close(ctx)

	out := []models.LogEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode logs", "", err)
	}
	return out, nil
}

// SetIntegrity draws the sequence from a per-season counter with $inc, so
// concurrent stamps never share a number. When two requests stamp the same
// entry at once, the loser's number is left unused and the winner's stamp is
// returned.
func (m *Mongo) SetIntegrity(ctx context.Context, id primitive.ObjectID, stamp models.IntegrityStamp) (models.IntegrityStamp, error) {
	l, err := m.GetLog(ctx, id)
	if err != nil {
		return models.IntegrityStamp{}, err
	}
	if l.Integrity != nil {
		return *l.Integrity, nil
	}
	seq, err := m.nextStampSequence(ctx, l.SeasonID)
	if err != nil {
		return models.IntegrityStamp{}, err
	}
	stamp.Sequence = seq

	res, err := m.logs.UpdateOne(ctx,
		bson.M{"_id": id, "integrity": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"integrity": stamp}},
	)
	if err != nil {
		return models.IntegrityStamp{}, mongoErr("stamp log", "", err)
	}
	if res.MatchedCount > 0 {
		return stamp, nil
	}
	if l, err = m.GetLog(ctx, id); err != nil {
		return models.IntegrityStamp{}, err
	}
	if l.Integrity == nil {
		return models.IntegrityStamp{}, apperr.Conflict("log %s changed while stamping", id.Hex())
	}
	return *l.Integrity, nil
}

func stampCounter(season primitive.ObjectID) string { return "integrity:" + season.Hex() }

// nextStampSequence increments the stamp counter of season. A missing
// counter is first raised to the highest sequence already stored, so
// entries stamped before counters existed are not numbered again.
func (m *Mongo) nextStampSequence(ctx context.Context, season primitive.ObjectID) (int64, error) {
	name := stampCounter(season)
	err := m.counters.FindOne(ctx, bson.M{"_id": name}).Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		var last models.LogEntry
		var start int64
		err := m.logs.FindOne(ctx,
			bson.M{"season": season, "integrity.sequence": bson.M{"$exists": true}},
			options.FindOne().SetSort(bson.D{{Key: "integrity.sequence", Value: -1}}),
		).Decode(&last)
		switch {
		case err == nil && last.Integrity != nil:
			start = last.Integrity.Sequence
		case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
			return 0, mongoErr("find last stamp", "", err)
		}
		// $max never lowers the counter, so racing seeds agree.
		_, err = m.counters.UpdateOne(ctx, bson.M{"_id": name}, bson.M{"$max": bson.M{"seq": start}}, options.Update().SetUpsert(true))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return 0, mongoErr("seed stamp counter", "", err)
		}
	case err != nil:
		return 0, mongoErr("find stamp counter", "", err)
	}
	return m.incCounter(ctx, name)
}

func (m *Mongo) incCounter(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	for attempt := 0; ; attempt++ {
		err := m.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) && attempt < 2 {
				continue
			}
			return 0, mongoErr("increment counter "+name, "", err)
		}
		return doc.Seq, nil
	}
}

// ---- hidden tasks ----

// Hide is a single upsert against the unique (season, taskName) index. Two
// concurrent first inserts can both miss the filter; the loser gets a
// duplicate-key error and succeeds as an update on retry.
func (m *Mongo) Hide(ctx context.Context, h models.HiddenTask) (bool, error) {
	key := models.TaskKey(h.TaskName)
	set := bson.M{"reason": h.Reason, "hiddenDate": h.HiddenAt}
	if h.UserID != nil {
		set["user"] = *h.UserID
	}
	filter := bson.M{"season": h.SeasonID, "taskName": key}
	update := bson.M{"$set": set}

	for attempt := 0; ; attempt++ {
		res, err := m.hidden.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) && attempt < 2 {
				continue
			}
			return false, mongoErr("hide task", "", err)
		}
		return res.MatchedCount > 0, nil
	}
}

func (m *Mongo) UnhideWhere(ctx context.Context, season primitive.ObjectID, taskName string, reason models.HideReason) (int64, error) {
	res, err := m.hidden.DeleteMany(ctx, bson.M{
		"season":   season,
		"taskName": models.TaskKey(taskName),
		"reason":   reason,
	})
	if err != nil {
		return 0, mongoErr("unhide task", "", err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) ListHidden(ctx context.Context, season primitive.ObjectID) ([]models.HiddenTask, error) {
	cur, err := m.hidden.Find(ctx, bson.M{"season": season}, options.Find().SetSort(bson.D{{Key: "hiddenDate", Value: 1}}))
	if err != nil {
		return nil, mongoErr("list hidden tasks", "", err)
	}
	defer cur.Close(ctx)

	out := []models.HiddenTask{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode hidden tasks", "", err)
	}
	return out, nil
}

// ---- materials ----

func (m *Mongo) CreateMaterial(ctx context.Context, mat *models.Material) error {
	if mat.ID.IsZero() {
		mat.ID = primitive.NewObjectID()
	}
	_, err := m.materials.InsertOne(ctx, mat)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("material %q or its barcode already exists", mat.Name)
	}
	return mongoErr("insert material", "", err)
}

func (m *Mongo) ListMaterials(ctx context.Context) ([]models.Material, error) {
	cur, err := m.materials.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "materialName", Value: 1}}))
	if err != nil {
		return nil, mongoErr("list materials", "", err)
	}
	defer cur.Close(ctx)

	out := []models.Material{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode materials", "", err)
	}
	return out, nil
}

func (m *Mongo) UpdateMaterial(ctx context.Context, mat *models.Material) error {
	set := bson.M{
		"materialName": mat.Name,
		"type":         mat.Type,
		"supplier":     mat.Supplier,
		"unit":         mat.Unit,
		"description":  mat.Description,
		"isActive":     mat.IsActive,
	}
	update := bson.M{"$set": set}
	if mat.Barcode != "" {
		set["barcodeNumber"] = mat.Barcode
	} else {
		// Unset keeps the sparse unique index free of empty strings.
		update["$unset"] = bson.M{"barcodeNumber": ""}
	}
	res := m.materials.FindOneAndUpdate(ctx, bson.M{"_id": mat.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))
	if err := res.Decode(mat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("material %q or its barcode already exists", mat.Name)
		}
		return mongoErr("update material", "material not found", err)
	}
	return nil
}

func (m *Mongo) DeleteMaterial(ctx context.Context, id primitive.ObjectID) (*models.Material, error) {
	var mat models.Material
	if err := m.materials.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&mat); err != nil {
		return nil, mongoErr("delete material", "material not found", err)
	}
	return &mat, nil
}

func (m *Mongo) MaterialByBarcode(ctx context.Context, barcode string) (*models.Material, error) {
	var mat models.Material
	if err := m.materials.FindOne(ctx, bson.M{"barcodeNumber": strings.TrimSpace(barcode)}).Decode(&mat); err != nil {
		return nil, mongoErr("find material", "material not found", err)
	}
	return &mat, nil
}

func (m *Mongo) TrackUsage(ctx context.Context, user primitive.ObjectID, name string, at time.Time) (*models.MaterialUsage, error) {
	filter := bson.M{"user": user, "materialName": name}
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"lastUsedAt": at},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.MaterialUsage
	for attempt := 0; ; attempt++ {
		err := m.usage.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) && attempt < 2 {
				continue
			}
			return nil, mongoErr("track material usage", "", err)
		}
		return &out, nil
	}
}

func (m *Mongo) FavoriteMaterials(ctx context.Context, user primitive.ObjectID, limit int) ([]models.MaterialUsage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "usageCount", Value: -1}, {Key: "lastUsedAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := m.usage.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, mongoErr("list favorite materials", "", err)
	}
	defer cur.Close(ctx)

	out := []models.MaterialUsage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("decode favorite materials", "", err)
	}
	return out, nil
}

// ---- users ----

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	_, err := m.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("email already registered")
	}
	return mongoErr("insert user", "", err)
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoErr("find user", "user not found", err)
	}
	return &u, nil
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u); err != nil {
		return nil, mongoErr("find user", "user not found", err)
	}
	return &u, nil
}

func (m *Mongo) SetFCMToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"fcmToken": token}})
	if err != nil {
		return mongoErr("set fcm token", "", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// ---- maintenance ----

func (m *Mongo) Count(ctx context.Context, since time.Time) (Counts, error) {
	var c Counts
	steps := []struct {
		dst    *int64
		col    *mongo.Collection
		filter bson.M
	}{
		{&c.Seasons, m.seasons, bson.M{}},
		{&c.ActiveSeasons, m.seasons, bson.M{"isActive": true}},
		{&c.Logs, m.logs, bson.M{}},
		{&c.LogsSince, m.logs, bson.M{"logDate": bson.M{"$gte": since}}},
		{&c.Materials, m.materials, bson.M{}},
		{&c.Templates, m.templates, bson.M{}},
	}
	for _, s := range steps {
		n, err := s.col.CountDocuments(ctx, s.filter)
		if err != nil {
			return c, mongoErr(fmt.Sprintf("count %s", s.col.Name()), "", err)
		}
		*s.dst = n
	}
	return c, nil
}

func (m *Mongo) Reset(ctx context.Context) error {
	for _, col := range []*mongo.Collection{m.logs, m.hidden, m.seasons, m.templates, m.materials, m.usage, m.counters} {
		if _, err := col.DeleteMany(ctx, bson.M{}); err != nil {
			return mongoErr("reset "+col.Name(), "", err)
		}
	}
	return nil
}

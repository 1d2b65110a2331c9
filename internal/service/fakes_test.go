package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"imaginarium/internal/model"
	"imaginarium/internal/push"
)

// In-memory stand-ins for the repositories. They keep just enough state to
// check what the services wrote.

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User

	getByIDFn func(ctx context.Context, id int64) (*model.User, error)
	searchFn  func(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.UserSummary, error)
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: map[int64]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = int64(len(r.users) + 1)
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if r.getByIDFn != nil {
		return r.getByIDFn(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ClaimHandle(_ context.Context, userID int64, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Handle = &handle
	return nil
}

func (r *memUserRepo) UpdatePushToken(_ context.Context, userID int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PushToken = &token
	return nil
}

func (r *memUserRepo) Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.UserSummary, error) {
	if r.searchFn != nil {
		return r.searchFn(ctx, query, excludeUserID, limit)
	}
	return nil, nil
}

type memImageRepo struct {
	mu     sync.Mutex
	images map[int64]*model.Image
	nextID int64

	createFn func(ctx context.Context, img *model.Image) error
}

func newMemImageRepo() *memImageRepo {
	return &memImageRepo{images: map[int64]*model.Image{}}
}

func (r *memImageRepo) Create(ctx context.Context, img *model.Image) error {
	if r.createFn != nil {
		if err := r.createFn(ctx, img); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	img.ID = r.nextID
	img.CreatedAt = time.Now()
	cp := *img
	r.images[img.ID] = &cp
	return nil
}

func (r *memImageRepo) SetImageURL(_ context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return errors.New("image not found")
	}
	img.ImageURL = url
	return nil
}

type memCreationRepo struct {
	mu        sync.Mutex
	creations map[int64]*model.Creation
	nextID    int64
	likes     *memLikeRepo

	listPublishedFn func(ctx context.Context, viewerID int64, limit, offset int) ([]model.CreationView, int, error)
	searchFn        func(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.CreationView, error)
	listByUserCalls []bool
}

func newMemCreationRepo(likes *memLikeRepo) *memCreationRepo {
	return &memCreationRepo{creations: map[int64]*model.Creation{}, likes: likes}
}

// seed stores a creation directly, published when displayURL is non-empty.
func (r *memCreationRepo) seed(id, ownerID int64, displayURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &model.Creation{ID: id, UserID: ownerID, ImageID: id, CreatedAt: time.Now()}
	if displayURL != "" {
		c.DisplayURL = &displayURL
	}
	r.creations[id] = c
	if id > r.nextID {
		r.nextID = id
	}
}

func (r *memCreationRepo) Create(_ context.Context, c *model.Creation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	cp := *c
	r.creations[c.ID] = &cp
	return nil
}

func (r *memCreationRepo) GetByID(_ context.Context, id int64) (*model.Creation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creations[id]
	if !ok {
		return nil, model.ErrCreationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCreationRepo) view(c *model.Creation, viewerID int64) model.CreationView {
	v := model.CreationView{ID: c.ID, UserID: c.UserID, DisplayURL: c.DisplayURL, CreatedAt: c.CreatedAt}
	if r.likes != nil {
		v.LikeCount = r.likes.count(c.ID)
		v.IsLiked = r.likes.has(viewerID, c.ID)
	}
	v.Finalize()
	return v
}

func (r *memCreationRepo) GetView(_ context.Context, id, viewerID int64) (*model.CreationView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creations[id]
	if !ok {
		return nil, model.ErrCreationNotFound
	}
	v := r.view(c, viewerID)
	return &v, nil
}

func (r *memCreationRepo) Publish(_ context.Context, id int64, displayURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creations[id]
	if !ok {
		return model.ErrCreationNotFound
	}
	if c.DisplayURL != nil {
		return model.ErrCreationNotPending
	}
	c.DisplayURL = &displayURL
	return nil
}

func (r *memCreationRepo) ListPublished(ctx context.Context, viewerID int64, limit, offset int) ([]model.CreationView, int, error) {
	if r.listPublishedFn != nil {
		return r.listPublishedFn(ctx, viewerID, limit, offset)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []model.CreationView
	for _, c := range r.creations {
		if c.DisplayURL != nil {
			views = append(views, r.view(c, viewerID))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].LikeCount != views[j].LikeCount {
			return views[i].LikeCount > views[j].LikeCount
		}
		return views[i].ID > views[j].ID
	})
	return pageOf(views, limit, offset), len(views), nil
}

func (r *memCreationRepo) ListByUser(_ context.Context, ownerID, viewerID int64, includePending bool, limit, offset int) ([]model.CreationView, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listByUserCalls = append(r.listByUserCalls, includePending)
	var views []model.CreationView
	for _, c := range r.creations {
		if c.UserID == ownerID && (includePending || c.DisplayURL != nil) {
			views = append(views, r.view(c, viewerID))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return pageOf(views, limit, offset), len(views), nil
}

func (r *memCreationRepo) Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.CreationView, error) {
	if r.searchFn != nil {
		return r.searchFn(ctx, query, excludeUserID, limit)
	}
	return nil, nil
}

func (r *memCreationRepo) DeletePendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.creations {
		if c.DisplayURL == nil && c.CreatedAt.Before(cutoff) {
			delete(r.creations, id)
			n++
		}
	}
	return n, nil
}

func (r *memCreationRepo) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.creations {
		if c.DisplayURL == nil {
			n++
		}
	}
	return n
}

func pageOf(views []model.CreationView, limit, offset int) []model.CreationView {
	if offset >= len(views) {
		return nil
	}
	end := offset + limit
	if end > len(views) {
		end = len(views)
	}
	return views[offset:end]
}

type likeKey struct{ userID, creationID int64 }

type memLikeRepo struct {
	mu    sync.Mutex
	edges map[likeKey]bool

	// afterExists runs after every membership read, outside the lock.
	afterExists func()
	// afterAdd runs after an edge is written.
	afterAdd func()
}

func newMemLikeRepo() *memLikeRepo {
	return &memLikeRepo{edges: map[likeKey]bool{}}
}

func (r *memLikeRepo) Exists(_ context.Context, userID, creationID int64) (bool, error) {
	r.mu.Lock()
	ok := r.edges[likeKey{userID, creationID}]
	r.mu.Unlock()
	if r.afterExists != nil {
		r.afterExists()
	}
	return ok, nil
}

func (r *memLikeRepo) Add(_ context.Context, userID, creationID int64) (bool, error) {
	r.mu.Lock()
	k := likeKey{userID, creationID}
	if r.edges[k] {
		r.mu.Unlock()
		return false, nil
	}
	r.edges[k] = true
	r.mu.Unlock()
	if r.afterAdd != nil {
		r.afterAdd()
	}
	return true, nil
}

func (r *memLikeRepo) Remove(_ context.Context, userID, creationID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := likeKey{userID, creationID}
	if !r.edges[k] {
		return false, nil
	}
	delete(r.edges, k)
	return true, nil
}

func (r *memLikeRepo) has(userID, creationID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[likeKey{userID, creationID}]
}

func (r *memLikeRepo) count(creationID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.edges {
		if k.creationID == creationID {
			n++
		}
	}
	return n
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments []model.Comment
}

func (r *memCommentRepo) Create(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = int64(len(r.comments) + 1)
	c.CreatedAt = time.Now()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *memCommentRepo) ListByCreation(_ context.Context, creationID int64, limit, offset int) ([]model.Comment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Comment
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].CreationID == creationID {
			out = append(out, r.comments[i])
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (r *memCommentRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comments)
}

type memNotificationRepo struct {
	mu    sync.Mutex
	items []*model.Notification

	createFn func(ctx context.Context, n *model.Notification) error
}

func (r *memNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if r.createFn != nil {
		if err := r.createFn(ctx, n); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = int64(len(r.items) + 1)
	n.CreatedAt = time.Now()
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *memNotificationRepo) Update(_ context.Context, id, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID != id || n.UserID != userID {
			continue
		}
		if req.IsRead != nil {
			n.IsRead = *req.IsRead
		}
		if req.Dismissed != nil {
			n.Dismissed = *req.Dismissed
		}
		cp := *n
		return &cp, nil
	}
	return nil, model.ErrNotificationNotFound
}

func (r *memNotificationRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			out = append(out, *r.items[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *memNotificationRepo) CountByUser(_ context.Context, userID int64) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, unread := 0, 0
	for _, n := range r.items {
		if n.UserID == userID {
			total++
			if !n.IsRead {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *memNotificationRepo) forUser(userID int64) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

func (r *memNotificationRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type memReportRepo struct {
	reports []model.Report
}

func (r *memReportRepo) Create(_ context.Context, rep *model.Report) error {
	rep.ID = int64(len(r.reports) + 1)
	r.reports = append(r.reports, *rep)
	return nil
}

type fakeGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.generateFn != nil {
		return g.generateFn(ctx, prompt)
	}
	return "https://cdn.test/images/render.png", nil
}

type fakeCompositor struct {
	thumbnailFn func(ctx context.Context, imageURL, avatarURL string) (string, error)
	avatars     []string
}

func (c *fakeCompositor) Thumbnail(ctx context.Context, imageURL, avatarURL string) (string, error) {
	c.avatars = append(c.avatars, avatarURL)
	if c.thumbnailFn != nil {
		return c.thumbnailFn(ctx, imageURL, avatarURL)
	}
	return "https://cdn.test/thumbnails/thumb.png", nil
}

type fakeSender struct{}

func (fakeSender) ValidToken(token string) bool {
	return strings.HasPrefix(token, "ExpoPushToken[") && strings.HasSuffix(token, "]")
}

func (fakeSender) Send(_ context.Context, msgs []push.Message) ([]push.Ticket, error) {
	return nil, errors.New("not used")
}

type fakeDispatcher struct {
	mu   sync.Mutex
	msgs []push.Message
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, msg push.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return d.err
}

func (d *fakeDispatcher) sent() []push.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]push.Message(nil), d.msgs...)
}

type notifierFunc func(ctx context.Context, recipientID int64, title, message, icon string) (*model.Notification, error)

func (f notifierFunc) Create(ctx context.Context, recipientID int64, title, message, icon string) (*model.Notification, error) {
	return f(ctx, recipientID, title, message, icon)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

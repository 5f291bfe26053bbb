package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"neotogether/internal/domain"
)

// In-memory fakes shared by the service tests. They mirror the repository
// contracts, including the sentinel errors the real repositories return.

// testEnv wires one in-memory copy of every repository.
type testEnv struct {
	taxonomy *fakeTaxonomyRepo
	users    *fakeUserRepo
	avail    *fakeAvailabilityRepo
	exprs    *fakeExpressionRepo
	matches  *fakeMatchRepo
	groups   *fakeGroupRepo
	joins    *fakeJoinRequestRepo
}

func newTestEnv(interests ...*domain.Interest) *testEnv {
	taxonomy := newFakeTaxonomyRepo(interests...)
	users := newFakeUserRepo(taxonomy)
	groups := newFakeGroupRepo(users)
	return &testEnv{
		taxonomy: taxonomy,
		users:    users,
		avail:    newFakeAvailabilityRepo(users),
		exprs:    newFakeExpressionRepo(),
		matches:  newFakeMatchRepo(),
		groups:   groups,
		joins:    newFakeJoinRequestRepo(groups),
	}
}

func (e *testEnv) addUser(id, firstName string, birthYear int, gender string) *domain.User {
	u := domain.NewUser(id, firstName, birthYear, gender, "h:key-"+id, time.Now())
	e.users.users[id] = u
	return u
}

func (e *testEnv) addSlot(userID string, lat, lng float64, start, end string, days []int) *domain.AvailabilitySlot {
	slot := &domain.AvailabilitySlot{
		UserID:       userID,
		LocationName: "Cafe",
		Latitude:     lat,
		Longitude:    lng,
		TimeStart:    start,
		TimeEnd:      end,
		RepeatDays:   days,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	_ = e.avail.Create(context.Background(), slot)
	return slot
}

func (e *testEnv) setInterests(userID string, names ...string) {
	var ids []int64
	for _, name := range names {
		for _, in := range e.taxonomy.interests {
			if in.Name == name {
				ids = append(ids, in.ID)
			}
		}
	}
	_ = e.users.ReplaceInterests(context.Background(), userID, ids)
}

func intPtr(n int) *int { return &n }

type fakeTaxonomyRepo struct {
	interests []*domain.Interest
}

func newFakeTaxonomyRepo(interests ...*domain.Interest) *fakeTaxonomyRepo {
	return &fakeTaxonomyRepo{interests: interests}
}

func (f *fakeTaxonomyRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Interest, int, error) {
	total := len(f.interests)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize <= 0 || end > total {
		end = total
	}
	return f.interests[start:end], total, nil
}

func (f *fakeTaxonomyRepo) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Interest, error) {
	var out []*domain.Interest
	for _, id := range ids {
		for _, in := range f.interests {
			if in.ID == id {
				out = append(out, in)
				break
			}
		}
	}
	return out, nil
}

type magicToken struct {
	userID    string
	expiresAt time.Time
}

type fakeUserRepo struct {
	users     map[string]*domain.User
	interests map[string][]*domain.Interest
	tokens    map[string]magicToken
	taxonomy  *fakeTaxonomyRepo
	err       error // if set, Create returns this error
}

func newFakeUserRepo(taxonomy *fakeTaxonomyRepo) *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]*domain.User),
		interests: make(map[string][]*domain.Interest),
		tokens:    make(map[string]magicToken),
		taxonomy:  taxonomy,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.err != nil {
		return f.err
	}
	if user.Email != "" {
		for _, u := range f.users {
			if u.Email == user.Email {
				return domain.ErrDuplicateEmail
			}
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	cp.Interests = f.interests[id]
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for id, u := range f.users {
		if u.Email == email {
			return f.GetByID(ctx, id)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ListByFirstName(ctx context.Context, firstName string) ([]*domain.User, error) {
	var out []*domain.User
	for id, u := range f.users {
		if u.FirstName == firstName {
			cp, _ := f.GetByID(ctx, id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) ReplaceInterests(ctx context.Context, userID string, interestIDs []int64) error {
	resolved, err := f.taxonomy.ListByIDs(ctx, interestIDs)
	if err != nil {
		return err
	}
	f.interests[userID] = resolved
	return nil
}

func (f *fakeUserRepo) ListInterestsByUserIDs(ctx context.Context, userIDs []string) (map[string][]*domain.Interest, error) {
	out := make(map[string][]*domain.Interest, len(userIDs))
	for _, id := range userIDs {
		out[id] = f.interests[id]
	}
	return out, nil
}

func (f *fakeUserRepo) UpdatePreferences(ctx context.Context, userID string, prefs domain.MatchPreferences) error {
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Preferences = prefs
	return nil
}

func (f *fakeUserRepo) SetAvailable(ctx context.Context, userID string, available bool) error {
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsAvailable = available
	return nil
}

func (f *fakeUserRepo) SetMagicToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = magicToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeUserRepo) ConsumeMagicToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	t, ok := f.tokens[tokenHash]
	if !ok || now.After(t.expiresAt) {
		return "", domain.ErrNotFound
	}
	delete(f.tokens, tokenHash)
	return t.userID, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(privateKey string) (string, error) { return "h:" + privateKey, nil }

func (fakeHasher) Compare(hash, privateKey string) error {
	if hash != "h:"+privateKey {
		return fmt.Errorf("hash mismatch")
	}
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	return "jwt:" + userID, nil
}

type fakeEmailService struct {
	welcome []*domain.WelcomeMessageEmailData
	magic   []*domain.MagicLinkEmailData
	err     error
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.welcome = append(f.welcome, data)
	return nil
}

func (f *fakeEmailService) SendMagicLink(ctx context.Context, data *domain.MagicLinkEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.magic = append(f.magic, data)
	return nil
}

type fakeAvailabilityRepo struct {
	slots  map[int64]*domain.AvailabilitySlot
	nextID int64
	users  *fakeUserRepo
}

func newFakeAvailabilityRepo(users *fakeUserRepo) *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{slots: make(map[int64]*domain.AvailabilitySlot), nextID: 1, users: users}
}

func (f *fakeAvailabilityRepo) Create(ctx context.Context, slot *domain.AvailabilitySlot) error {
	slot.ID = f.nextID
	f.nextID++
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeAvailabilityRepo) GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAvailabilityRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.AvailabilitySlot, error) {
	var out []*domain.AvailabilitySlot
	for _, s := range f.sorted() {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) ListActiveByUserID(ctx context.Context, userID string) ([]*domain.AvailabilitySlot, error) {
	var out []*domain.AvailabilitySlot
	for _, s := range f.sorted() {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) Update(ctx context.Context, slot *domain.AvailabilitySlot) error {
	if _, ok := f.slots[slot.ID]; !ok {
		return domain.ErrNotFound
	}
	f.slots[slot.ID] = slot
	return nil
}

func (f *fakeAvailabilityRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.slots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.slots, id)
	return nil
}

func (f *fakeAvailabilityRepo) ListVisible(ctx context.Context, excludeUserID string) ([]*domain.SlotWithOwner, error) {
	var out []*domain.SlotWithOwner
	for _, s := range f.sorted() {
		if sw := f.visible(ctx, s, excludeUserID); sw != nil {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) ListVisibleNear(ctx context.Context, lat, lng float64, excludeUserID string) ([]*domain.SlotWithOwner, error) {
	var out []*domain.SlotWithOwner
	for _, s := range f.sorted() {
		if math.Abs(s.Latitude-lat) > 0.001 || math.Abs(s.Longitude-lng) > 0.001 {
			continue
		}
		if sw := f.visible(ctx, s, excludeUserID); sw != nil {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) visible(ctx context.Context, s *domain.AvailabilitySlot, excludeUserID string) *domain.SlotWithOwner {
	if !s.IsActive || s.UserID == excludeUserID {
		return nil
	}
	owner, err := f.users.GetByID(ctx, s.UserID)
	if err != nil || !owner.IsAvailable {
		return nil
	}
	cp := *s
	return &domain.SlotWithOwner{Slot: &cp, Owner: owner}
}

func (f *fakeAvailabilityRepo) sorted() []*domain.AvailabilitySlot {
	out := make([]*domain.AvailabilitySlot, 0, len(f.slots))
	for _, s := range f.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeExpressionRepo struct {
	exprs  []*domain.InterestExpression
	nextID int64
}

func newFakeExpressionRepo() *fakeExpressionRepo {
	return &fakeExpressionRepo{nextID: 1}
}

func (f *fakeExpressionRepo) Create(ctx context.Context, expr *domain.InterestExpression) error {
	exists, _ := f.Exists(ctx, expr.ActorID, expr.TargetID, expr.SlotID)
	if exists {
		return domain.ErrDuplicateExpression
	}
	expr.ID = f.nextID
	f.nextID++
	f.exprs = append(f.exprs, expr)
	return nil
}

func (f *fakeExpressionRepo) Exists(ctx context.Context, actorID, targetID string, slotID int64) (bool, error) {
	for _, e := range f.exprs {
		if e.ActorID == actorID && e.TargetID == targetID && e.SlotID == slotID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExpressionRepo) ListByActor(ctx context.Context, actorID string) ([]*domain.InterestExpression, error) {
	var out []*domain.InterestExpression
	for _, e := range f.exprs {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpressionRepo) ListByActorAndTarget(ctx context.Context, actorID, targetID string) ([]*domain.InterestExpression, error) {
	var out []*domain.InterestExpression
	for _, e := range f.exprs {
		if e.ActorID == actorID && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	matches map[int64]*domain.Match
	nextID  int64
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int64]*domain.Match), nextID: 1}
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *domain.Match) (bool, error) {
	for _, m := range f.matches {
		if m.User1ID == match.User1ID && m.User2ID == match.User2ID && m.SlotID == match.SlotID {
			return false, nil
		}
	}
	match.ID = f.nextID
	f.nextID++
	f.matches[match.ID] = match
	return true, nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatchRepo) GetByPairAndSlot(ctx context.Context, user1ID, user2ID string, slotID int64) (*domain.Match, error) {
	for _, m := range f.matches {
		if m.User1ID == user1ID && m.User2ID == user2ID && m.SlotID == slotID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMatchRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Match, error) {
	var out []*domain.Match
	for _, m := range f.matches {
		if m.HasParticipant(userID) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) ProposeTime(ctx context.Context, matchID int64, proposerID string, datetime time.Time) error {
	m, ok := f.matches[matchID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Status == domain.MatchConfirmed {
		return domain.ErrAlreadyConfirmed
	}
	m.Status = domain.MatchTimeProposed
	m.ProposerID = &proposerID
	m.ProposedDatetime = &datetime
	return nil
}

func (f *fakeMatchRepo) Confirm(ctx context.Context, matchID int64, confirmedAt time.Time) error {
	m, ok := f.matches[matchID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Status != domain.MatchTimeProposed {
		return domain.ErrNoProposalYet
	}
	m.Status = domain.MatchConfirmed
	m.ConfirmedAt = &confirmedAt
	return nil
}

type fakeGroupRepo struct {
	groups       map[int64]*domain.Group
	bySlot       map[int64]int64
	members      map[int64][]*domain.GroupMember
	nextGroupID  int64
	nextMemberID int64
	users        *fakeUserRepo
}

func newFakeGroupRepo(users *fakeUserRepo) *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:       make(map[int64]*domain.Group),
		bySlot:       make(map[int64]int64),
		members:      make(map[int64][]*domain.GroupMember),
		nextGroupID:  1,
		nextMemberID: 1,
		users:        users,
	}
}

func (f *fakeGroupRepo) CreateWithMembers(ctx context.Context, group *domain.Group, members []*domain.GroupMember) (bool, *domain.Group, error) {
	if id, ok := f.bySlot[group.SlotID]; ok {
		cp := *f.groups[id]
		return false, &cp, nil
	}
	group.ID = f.nextGroupID
	f.nextGroupID++
	f.groups[group.ID] = group
	f.bySlot[group.SlotID] = group.ID
	for _, m := range members {
		m.ID = f.nextMemberID
		f.nextMemberID++
		m.GroupID = group.ID
		f.members[group.ID] = append(f.members[group.ID], m)
	}
	f.recomputeStatus(ctx, group.ID)
	return true, nil, nil
}

func (f *fakeGroupRepo) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGroupRepo) GetBySlotID(ctx context.Context, slotID int64) (*domain.Group, error) {
	id, ok := f.bySlot[slotID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeGroupRepo) AddConfirmedMember(ctx context.Context, groupID int64, userID string, role domain.GroupMemberRole, joinedAt time.Time) error {
	if _, ok := f.groups[groupID]; !ok {
		return domain.ErrNotFound
	}
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return nil
		}
	}
	f.members[groupID] = append(f.members[groupID], &domain.GroupMember{
		ID:       f.nextMemberID,
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		Status:   domain.MemberConfirmed,
		JoinedAt: joinedAt,
	})
	f.nextMemberID++
	f.recomputeStatus(ctx, groupID)
	return nil
}

func (f *fakeGroupRepo) ListConfirmedMembers(ctx context.Context, groupID int64) ([]*domain.GroupMemberWithUser, error) {
	var out []*domain.GroupMemberWithUser
	for _, m := range f.members[groupID] {
		if m.Status != domain.MemberConfirmed {
			continue
		}
		u, err := f.users.GetByID(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		cp := *m
		out = append(out, &domain.GroupMemberWithUser{Member: &cp, User: u})
	}
	return out, nil
}

func (f *fakeGroupRepo) IsConfirmedMember(ctx context.Context, groupID int64, userID string) (bool, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID && m.Status == domain.MemberConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroupRepo) ListGroupIDsByMember(ctx context.Context, userID string) ([]int64, error) {
	var out []int64
	for groupID, members := range f.members {
		for _, m := range members {
			if m.UserID == userID && m.Status == domain.MemberConfirmed {
				out = append(out, groupID)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeGroupRepo) ListByMember(ctx context.Context, userID string) ([]*domain.Group, error) {
	ids, _ := f.ListGroupIDsByMember(ctx, userID)
	out := make([]*domain.Group, 0, len(ids))
	for _, id := range ids {
		g, _ := f.GetByID(ctx, id)
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGroupRepo) recomputeStatus(ctx context.Context, groupID int64) {
	members, _ := f.ListConfirmedMembers(ctx, groupID)
	f.groups[groupID].Status = domain.GroupStatusFor(len(members), members)
}

type fakeJoinRequestRepo struct {
	reqs   map[int64]*domain.GroupJoinRequest
	nextID int64
	groups *fakeGroupRepo
}

func newFakeJoinRequestRepo(groups *fakeGroupRepo) *fakeJoinRequestRepo {
	return &fakeJoinRequestRepo{reqs: make(map[int64]*domain.GroupJoinRequest), nextID: 1, groups: groups}
}

func (f *fakeJoinRequestRepo) Create(ctx context.Context, req *domain.GroupJoinRequest) error {
	for _, r := range f.reqs {
		if r.GroupID == req.GroupID && r.RequesterID == req.RequesterID && r.Status == domain.JoinRequestPending {
			return domain.ErrDuplicateJoinRequest
		}
	}
	req.ID = f.nextID
	f.nextID++
	f.reqs[req.ID] = req
	return nil
}

func (f *fakeJoinRequestRepo) HasPending(ctx context.Context, groupID int64, requesterID string) (bool, error) {
	for _, r := range f.reqs {
		if r.GroupID == groupID && r.RequesterID == requesterID && r.Status == domain.JoinRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJoinRequestRepo) GetByID(ctx context.Context, id int64) (*domain.GroupJoinRequest, error) {
	r, ok := f.reqs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeJoinRequestRepo) ListPendingByGroupIDs(ctx context.Context, groupIDs []int64) ([]*domain.GroupJoinRequest, error) {
	var out []*domain.GroupJoinRequest
	for _, r := range f.reqs {
		if r.Status != domain.JoinRequestPending {
			continue
		}
		for _, id := range groupIDs {
			if r.GroupID == id {
				cp := *r
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeJoinRequestRepo) Accept(ctx context.Context, requestID int64, respondedAt time.Time) (*domain.GroupJoinRequest, error) {
	r, ok := f.reqs[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Status != domain.JoinRequestPending {
		return nil, domain.ErrAlreadyResolved
	}
	members, err := f.groups.ListConfirmedMembers(ctx, r.GroupID)
	if err != nil {
		return nil, err
	}
	size := len(members)
	for _, m := range members {
		if size >= m.User.Preferences.MaxGroupSize {
			return nil, &domain.GroupFullError{MaxSize: m.User.Preferences.MaxGroupSize}
		}
	}
	if err := f.groups.AddConfirmedMember(ctx, r.GroupID, r.RequesterID, domain.RoleMember, respondedAt); err != nil {
		return nil, err
	}
	r.Status = domain.JoinRequestAccepted
	r.RespondedAt = &respondedAt
	cp := *r
	return &cp, nil
}

func (f *fakeJoinRequestRepo) Decline(ctx context.Context, requestID int64, respondedAt time.Time) (*domain.GroupJoinRequest, error) {
	r, ok := f.reqs[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Status != domain.JoinRequestPending {
		return nil, domain.ErrAlreadyResolved
	}
	r.Status = domain.JoinRequestDeclined
	r.RespondedAt = &respondedAt
	cp := *r
	return &cp, nil
}

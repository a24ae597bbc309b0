package service

import (
	"context"
	"testing"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadAccessIntersection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin", lifecycle.RoleAdmin)
	insider := f.user(t, "insider", lifecycle.RoleMember)
	outsider := f.user(t, "outsider", lifecycle.RoleMember)

	private, err := f.groups.Create(ctx, admin, CreateWorkingGroupInput{Name: "Board", IsPrivate: true, CoordinatorID: insider.ID})
	require.NoError(t, err)
	public := f.group(t, admin, "Open Mic")

	general := f.thread(t, outsider, "General chatter")
	secret := f.thread(t, insider, "Budget", private.ID)
	open := f.thread(t, outsider, "Open mic rota", public.ID)

	ids := func(a lifecycle.Actor) []uint64 {
		list, err := f.threads.List(ctx, a, 0, 1, 50)
		require.NoError(t, err)
		var out []uint64
		for _, th := range list {
			out = append(out, th.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []uint64{general.ID, secret.ID, open.ID}, ids(admin))
	assert.ElementsMatch(t, []uint64{general.ID, secret.ID, open.ID}, ids(insider))
	assert.ElementsMatch(t, []uint64{general.ID, open.ID}, ids(outsider))

	_, err = f.threads.Get(ctx, outsider, secret.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.posts.Create(ctx, outsider, secret.ID, "let me in", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.threads.Create(ctx, outsider, CreateThreadInput{Title: "Sneaky", WorkingGroupIDs: []uint64{private.ID}})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.groups.Join(ctx, outsider, private.ID), apperr.ErrForbidden)
}

func TestThreadStatusAndArchive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin", lifecycle.RoleAdmin)
	author := f.user(t, "author", lifecycle.RoleMember)
	other := f.user(t, "other", lifecycle.RoleMember)
	th := f.thread(t, author, "Wrap-up")

	assert.ErrorIs(t, f.threads.UpdateStatus(ctx, other, th.ID, model.ThreadResolved), apperr.ErrForbidden)
	assert.ErrorIs(t, f.threads.UpdateStatus(ctx, author, th.ID, "closed"), apperr.ErrValidation)
	require.NoError(t, f.threads.UpdateStatus(ctx, author, th.ID, model.ThreadArchived))

	_, err := f.posts.Create(ctx, other, th.ID, "late reply", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.ErrorIs(t, f.threads.SetPinned(ctx, author, th.ID, true), apperr.ErrForbidden)
	require.NoError(t, f.threads.SetPinned(ctx, admin, th.ID, true))

	got, err := f.threads.Get(ctx, other, th.ID)
	require.NoError(t, err)
	assert.True(t, got.Pinned)
	assert.Equal(t, model.ThreadArchived, got.Status)
	assert.EqualValues(t, 1, got.ViewCount)
}

func TestPostEditAndSanitize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "author", lifecycle.RoleMember)
	other := f.user(t, "other", lifecycle.RoleMember)
	th := f.thread(t, author, "Sanitize me")

	p := f.post(t, author, th.ID, `<p onclick="x()">hi<script>alert(1)</script></p>`)
	assert.Equal(t, "<p>hi</p>", p.Content)

	_, err := f.posts.Create(ctx, author, th.ID, "<script></script>", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.posts.Edit(ctx, other, p.ID, "mine now")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	edited, err := f.posts.Edit(ctx, author, p.ID, "<p>hello</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", edited.Content)
	assert.Equal(t, 1, edited.EditCount)
	require.NotNil(t, edited.EditedAt)

	list, err := f.posts.List(ctx, other, th.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPostEditHiddenWithThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin", lifecycle.RoleAdmin)
	member := f.user(t, "member", lifecycle.RoleMember)
	g := f.group(t, admin, "Festivals")
	th := f.thread(t, member, "Line-up")
	p := f.post(t, member, th.ID, "first draft")
	grouped := f.thread(t, member, "Stage plan", g.ID)
	q := f.post(t, member, grouped.ID, "stage left")

	_, err := f.lifecycle.SoftDelete(ctx, lifecycle.KindThread, th.ID, admin)
	require.NoError(t, err)
	_, err = f.posts.Edit(ctx, member, p.ID, "<p>edited after thread delete</p>")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.SoftDelete(ctx, lifecycle.KindWorkingGroup, g.ID, admin)
	require.NoError(t, err)
	_, err = f.posts.Edit(ctx, member, q.ID, "edited under a deleted group")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var stored model.Post
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, "first draft", stored.Content)
	assert.Zero(t, stored.EditCount)

	require.NoError(t, f.lifecycle.Restore(ctx, lifecycle.KindThread, th.ID, f.user(t, "root", lifecycle.RoleSuperAdmin)))
	edited, err := f.posts.Edit(ctx, member, p.ID, "second draft")
	require.NoError(t, err)
	assert.Equal(t, "second draft", edited.Content)
}

func TestWorkingGroupSlugUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin", lifecycle.RoleAdmin)
	member := f.user(t, "member", lifecycle.RoleMember)

	g := f.group(t, admin, "Jazz Ed & Outreach")
	assert.Equal(t, "jazz-ed-and-outreach", g.Slug)

	_, err := f.groups.Create(ctx, admin, CreateWorkingGroupInput{Name: "Jazz Ed & Outreach"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.groups.Create(ctx, member, CreateWorkingGroupInput{Name: "Rogue"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.groups.Join(ctx, member, g.ID))
	require.NoError(t, f.groups.Leave(ctx, member, g.ID))

	list, err := f.groups.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

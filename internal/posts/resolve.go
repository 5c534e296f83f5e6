package posts

import (
	"context"

	"github.com/campusfeed/backend/internal/models"
)

// referencedUsers returns the distinct author and commenter ids of posts.
func referencedUsers(posts []models.Post) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range posts {
		add(p.Author)
		for _, c := range p.Comments {
			add(c.User)
		}
	}
	return ids
}

// resolvePosts loads every referenced user in one lookup and builds the
// response views.
func resolvePosts(ctx context.Context, users UserLookup, posts []models.Post) ([]models.PostView, error) {
	byID, err := users.UsersByIDs(ctx, referencedUsers(posts))
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, postView(p, byID))
	}
	return views, nil
}

func postView(p models.Post, users map[string]*models.User) models.PostView {
	var author *models.AuthorRef
	if u, ok := users[p.Author]; ok {
		author = &models.AuthorRef{ID: u.ID, Name: u.Name, Role: u.Role}
	}
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}
	return models.PostView{
		ID:        p.ID,
		Content:   p.Content,
		Author:    author,
		Likes:     likes,
		Comments:  commentViews(p.Comments, users),
		CreatedAt: p.CreatedAt,
	}
}

func commentViews(comments []models.Comment, users map[string]*models.User) []models.CommentView {
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c, users[c.User]))
	}
	return views
}

func commentView(c models.Comment, u *models.User) models.CommentView {
	view := models.CommentView{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
	if u != nil {
		view.User = &models.UserRef{ID: u.ID, Name: u.Name}
	}
	return view
}

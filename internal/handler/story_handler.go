package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"storyhub/internal/identity"
	"storyhub/internal/models"
	"storyhub/internal/service"
	"storyhub/internal/story"
)

var errNotVisualStory = errors.New("статья не является визуальной историей")

type AddBlockRequest struct {
	Type models.BlockType `json:"type" validate:"required"`
}

type UpdateBlockRequest struct {
	Content models.BlockContent `json:"content"`
}

type ReorderRequest struct {
	From int `json:"from" validate:"min=0"`
	To   int `json:"to" validate:"min=0"`
}

type StoryResponse struct {
	Story models.VisualStory `json:"story"`
	Block *models.Block      `json:"block,omitempty"`
}

// storyOf decodes the blocks of a visual story. A story without content yet
// starts empty under the article title.
func storyOf(article *models.Article) (models.VisualStory, error) {
	if article.Content == "" {
		s := story.New()
		s.Title = article.Title
		s.AuthorName = article.AuthorName
		return s, nil
	}
	return story.Decode(article.Content)
}

// editStory applies edit to the story of the article in the URL and saves it
// through the regular article update, so the edit policy applies.
func (h *Handlers) editStory(w http.ResponseWriter, r *http.Request, actor identity.Identity, edit func(models.VisualStory) (models.VisualStory, error)) (models.VisualStory, bool) {
	articleID := mux.Vars(r)["id"]

	article, err := h.ArticleService.Lookup(r.Context(), articleID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return models.VisualStory{}, false
	}
	if !article.IsVisualStory {
		WriteError(w, errNotVisualStory.Error(), http.StatusBadRequest)
		return models.VisualStory{}, false
	}

	s, err := storyOf(article)
	if err != nil {
		h.writeServiceError(w, r, err)
		return models.VisualStory{}, false
	}

	s, err = edit(s)
	if err != nil {
		h.writeServiceError(w, r, err)
		return models.VisualStory{}, false
	}

	content, err := story.Encode(s)
	if err != nil {
		h.writeServiceError(w, r, err)
		return models.VisualStory{}, false
	}

	_, err = h.ArticleService.UpdateArticle(r.Context(), actor, articleID, service.UpdateArticleRequest{
		Title:         article.Title,
		Excerpt:       article.Excerpt,
		Content:       content,
		Category:      article.Category,
		FeaturedImage: article.FeaturedImage,
		IsVisualStory: true,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return models.VisualStory{}, false
	}

	return s, true
}

func (h *Handlers) AddBlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AddBlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	var added models.Block
	s, ok := h.editStory(w, r, actor, func(s models.VisualStory) (models.VisualStory, error) {
		var err error
		s, added, err = story.Append(s, req.Type)
		return s, err
	})
	if !ok {
		return
	}

	WriteJSON(w, StoryResponse{Story: s, Block: &added}, http.StatusCreated)
}

func (h *Handlers) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateBlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	blockID := mux.Vars(r)["blockId"]
	s, ok := h.editStory(w, r, actor, func(s models.VisualStory) (models.VisualStory, error) {
		return story.Update(s, blockID, req.Content)
	})
	if !ok {
		return
	}

	WriteJSON(w, StoryResponse{Story: s}, http.StatusOK)
}

func (h *Handlers) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	blockID := mux.Vars(r)["blockId"]
	s, ok := h.editStory(w, r, actor, func(s models.VisualStory) (models.VisualStory, error) {
		return story.Remove(s, blockID)
	})
	if !ok {
		return
	}

	WriteJSON(w, StoryResponse{Story: s}, http.StatusOK)
}

func (h *Handlers) ReorderBlocks(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := h.editStory(w, r, actor, func(s models.VisualStory) (models.VisualStory, error) {
		blocks, err := story.Reorder(s.Blocks, req.From, req.To)
		s.Blocks = blocks
		return s, err
	})
	if !ok {
		return
	}

	WriteJSON(w, StoryResponse{Story: s}, http.StatusOK)
}

package test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	handlers "storyhub/internal/handler"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/service"
	"storyhub/internal/story"
)

func visualArticle(t *testing.T, blocks ...models.Block) *models.Article {
	t.Helper()

	article := &models.Article{
		ID:            "a-1",
		Title:         "Фотоистория",
		AuthorID:      author.UserID,
		Category:      models.CategoryLens,
		Status:        models.StatusDraft,
		IsVisualStory: true,
	}
	if len(blocks) > 0 {
		s := story.New()
		s.Blocks = blocks
		content, err := story.Encode(s)
		require.NoError(t, err)
		article.Content = content
	}
	return article
}

func savedStory(check func(models.VisualStory) bool) interface{} {
	return mock.MatchedBy(func(req service.UpdateArticleRequest) bool {
		s, err := story.Decode(req.Content)
		return err == nil && req.IsVisualStory && check(s)
	})
}

func storyRequest(t *testing.T, method, url string, body interface{}, vars map[string]string) *http.Request {
	t.Helper()
	return withVars(withActor(jsonRequest(t, method, url, body), author), vars)
}

func TestAddBlockHandler(t *testing.T) {
	handler, m := createTestHandler()
	m.articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t), nil)
	m.articles.On("UpdateArticle", mock.Anything, author, "a-1", savedStory(func(s models.VisualStory) bool {
		return s.Title == "Фотоистория" && len(s.Blocks) == 1 && s.Blocks[0].Type == models.BlockText
	})).Return(&models.Article{ID: "a-1"}, nil)

	rr := httptest.NewRecorder()
	handler.AddBlock(rr, storyRequest(t, http.MethodPost, "/api/articles/a-1/blocks",
		map[string]string{"type": "text"}, map[string]string{"id": "a-1"}))

	require.Equal(t, http.StatusCreated, rr.Code)
	response := decodeBody[handlers.StoryResponse](t, rr)
	require.NotNil(t, response.Block)
	assert.Equal(t, models.BlockText, response.Block.Type)
	assert.NotEmpty(t, response.Block.Content.Text)
	m.articles.AssertExpectations(t)
}

func TestAddBlockHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(*testing.T, *MockArticleService)
		expectedStatus int
	}{
		{
			name: "Неизвестный тип блока",
			body: map[string]string{"type": "video"},
			mockSetup: func(t *testing.T, articles *MockArticleService) {
				articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Обычная статья",
			body: map[string]string{"type": "text"},
			mockSetup: func(t *testing.T, articles *MockArticleService) {
				articles.On("Lookup", mock.Anything, "a-1").Return(&models.Article{ID: "a-1"}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Чужая история",
			body: map[string]string{"type": "quote"},
			mockSetup: func(t *testing.T, articles *MockArticleService) {
				articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t), nil)
				articles.On("UpdateArticle", mock.Anything, author, "a-1", mock.Anything).Return(nil, lifecycle.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := createTestHandler()
			tt.mockSetup(t, m.articles)

			rr := httptest.NewRecorder()
			handler.AddBlock(rr, storyRequest(t, http.MethodPost, "/api/articles/a-1/blocks", tt.body, map[string]string{"id": "a-1"}))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			m.articles.AssertExpectations(t)
		})
	}
}

func TestUpdateAndDeleteBlockHandler(t *testing.T) {
	quote := models.Block{ID: "b-1", Type: models.BlockQuote, Content: models.BlockContent{Quote: "Старая цитата"}}
	text := models.Block{ID: "b-2", Type: models.BlockText, Content: models.BlockContent{Text: "Текст"}}

	t.Run("Изменение сохраняет остальные поля", func(t *testing.T) {
		handler, m := createTestHandler()
		m.articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t, quote, text), nil)
		m.articles.On("UpdateArticle", mock.Anything, author, "a-1", savedStory(func(s models.VisualStory) bool {
			return s.Blocks[0].Content.Quote == "Старая цитата" && s.Blocks[0].Content.Author == "Автор"
		})).Return(&models.Article{ID: "a-1"}, nil)

		rr := httptest.NewRecorder()
		handler.UpdateBlock(rr, storyRequest(t, http.MethodPatch, "/api/articles/a-1/blocks/b-1",
			map[string]interface{}{"content": map[string]string{"author": "Автор"}},
			map[string]string{"id": "a-1", "blockId": "b-1"}))

		require.Equal(t, http.StatusOK, rr.Code)
		m.articles.AssertExpectations(t)
	})

	t.Run("Удаление блока", func(t *testing.T) {
		handler, m := createTestHandler()
		m.articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t, quote, text), nil)
		m.articles.On("UpdateArticle", mock.Anything, author, "a-1", savedStory(func(s models.VisualStory) bool {
			return len(s.Blocks) == 1 && s.Blocks[0].ID == "b-2"
		})).Return(&models.Article{ID: "a-1"}, nil)

		req := withVars(withActor(httptest.NewRequest(http.MethodDelete, "/api/articles/a-1/blocks/b-1", nil), author),
			map[string]string{"id": "a-1", "blockId": "b-1"})
		rr := httptest.NewRecorder()
		handler.DeleteBlock(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		m.articles.AssertExpectations(t)
	})

	t.Run("Блок не найден", func(t *testing.T) {
		handler, m := createTestHandler()
		m.articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t, quote), nil)

		req := withVars(withActor(httptest.NewRequest(http.MethodDelete, "/api/articles/a-1/blocks/b-9", nil), author),
			map[string]string{"id": "a-1", "blockId": "b-9"})
		rr := httptest.NewRecorder()
		handler.DeleteBlock(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		m.articles.AssertNotCalled(t, "UpdateArticle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReorderBlocksHandler(t *testing.T) {
	blocks := []models.Block{
		{ID: "b-1", Type: models.BlockText, Content: models.BlockContent{Text: "1"}},
		{ID: "b-2", Type: models.BlockText, Content: models.BlockContent{Text: "2"}},
		{ID: "b-3", Type: models.BlockText, Content: models.BlockContent{Text: "3"}},
	}

	tests := []struct {
		name           string
		from, to       int
		expectedOrder  []string
		expectedStatus int
	}{
		{name: "Первый в конец", from: 0, to: 2, expectedOrder: []string{"b-2", "b-3", "b-1"}, expectedStatus: http.StatusOK},
		{name: "Последний в начало", from: 2, to: 0, expectedOrder: []string{"b-3", "b-1", "b-2"}, expectedStatus: http.StatusOK},
		{name: "Индекс вне диапазона", from: 0, to: 3, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := createTestHandler()
			m.articles.On("Lookup", mock.Anything, "a-1").Return(visualArticle(t, blocks...), nil)
			if tt.expectedStatus == http.StatusOK {
				m.articles.On("UpdateArticle", mock.Anything, author, "a-1", savedStory(func(s models.VisualStory) bool {
					ids := make([]string, 0, len(s.Blocks))
					for _, block := range s.Blocks {
						ids = append(ids, block.ID)
					}
					return assert.ObjectsAreEqual(tt.expectedOrder, ids)
				})).Return(&models.Article{ID: "a-1"}, nil)
			}

			rr := httptest.NewRecorder()
			handler.ReorderBlocks(rr, storyRequest(t, http.MethodPost, "/api/articles/a-1/blocks/reorder",
				map[string]int{"from": tt.from, "to": tt.to}, map[string]string{"id": "a-1"}))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			m.articles.AssertExpectations(t)
		})
	}
}

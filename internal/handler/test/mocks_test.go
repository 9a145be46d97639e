// go test ./internal/handler/test... -v
package test

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"storyhub/internal/identity"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req repository.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.String(2), args.Error(3)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	args := m.Called(ctx, refreshToken)
	user, _ := args.Get(0).(*models.User)
	return user, args.String(1), args.String(2), args.Error(3)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*jwt.Token, error) {
	args := m.Called(tokenString)
	token, _ := args.Get(0).(*jwt.Token)
	return token, args.Error(1)
}

func (m *MockAuthService) IdentityFromToken(tokenString string) (identity.Identity, error) {
	args := m.Called(tokenString)
	return args.Get(0).(identity.Identity), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, req repository.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ChangeRole(ctx context.Context, userID string, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

type MockArticleService struct {
	mock.Mock
}

func (m *MockArticleService) article(args mock.Arguments) (*models.Article, error) {
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *MockArticleService) articles(args mock.Arguments) ([]models.Article, error) {
	articles, _ := args.Get(0).([]models.Article)
	return articles, args.Error(1)
}

func (m *MockArticleService) CreateArticle(ctx context.Context, actor identity.Identity, req service.CreateArticleRequest) (*models.Article, error) {
	return m.article(m.Called(ctx, actor, req))
}

func (m *MockArticleService) UpdateArticle(ctx context.Context, actor identity.Identity, articleID string, req service.UpdateArticleRequest) (*models.Article, error) {
	return m.article(m.Called(ctx, actor, articleID, req))
}

func (m *MockArticleService) GetArticle(ctx context.Context, actor identity.Identity, articleID string) (*models.Article, error) {
	return m.article(m.Called(ctx, actor, articleID))
}

func (m *MockArticleService) Lookup(ctx context.Context, articleID string) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID))
}

func (m *MockArticleService) IncrementViews(ctx context.Context, articleID string) error {
	return m.Called(ctx, articleID).Error(0)
}

func (m *MockArticleService) Transition(ctx context.Context, articleID string, action lifecycle.Action, in lifecycle.Input) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, action, in))
}

func (m *MockArticleService) Submit(ctx context.Context, articleID string) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID))
}

func (m *MockArticleService) Resubmit(ctx context.Context, articleID string) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID))
}

func (m *MockArticleService) Approve(ctx context.Context, articleID string) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID))
}

func (m *MockArticleService) RequestChanges(ctx context.Context, articleID, feedback string) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, feedback))
}

func (m *MockArticleService) Reject(ctx context.Context, articleID, reason string, confirmed bool) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, reason, confirmed))
}

func (m *MockArticleService) Unpublish(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, confirmed))
}

func (m *MockArticleService) Archive(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, confirmed))
}

func (m *MockArticleService) Unarchive(ctx context.Context, articleID string, target models.Status) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, target))
}

func (m *MockArticleService) Delete(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, confirmed))
}

func (m *MockArticleService) Restore(ctx context.Context, articleID string, target models.Status, confirmed bool) (*models.Article, error) {
	return m.article(m.Called(ctx, articleID, target, confirmed))
}

func (m *MockArticleService) Purge(ctx context.Context, articleID string, confirmed bool) error {
	return m.Called(ctx, articleID, confirmed).Error(0)
}

func (m *MockArticleService) List(ctx context.Context, filter repository.ArticleFilter) ([]models.Article, error) {
	return m.articles(m.Called(ctx, filter))
}

func (m *MockArticleService) ListByStatus(ctx context.Context, status models.Status) ([]models.Article, error) {
	return m.articles(m.Called(ctx, status))
}

func (m *MockArticleService) ListByAuthor(ctx context.Context, authorID string) ([]models.Article, error) {
	return m.articles(m.Called(ctx, authorID))
}

func (m *MockArticleService) ListPublished(ctx context.Context, limit int) ([]models.Article, error) {
	return m.articles(m.Called(ctx, limit))
}

func (m *MockArticleService) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.Status]int)
	return counts, args.Error(1)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) image(args mock.Arguments) (*models.Image, error) {
	image, _ := args.Get(0).(*models.Image)
	return image, args.Error(1)
}

func (m *MockMediaService) UploadFeaturedImage(ctx context.Context, actor identity.Identity, articleID string, upload service.Upload) (*models.Image, error) {
	return m.image(m.Called(ctx, actor, articleID, upload))
}

func (m *MockMediaService) UploadBlockImage(ctx context.Context, actor identity.Identity, articleID string, upload service.Upload) (*models.Image, error) {
	return m.image(m.Called(ctx, actor, articleID, upload))
}

func (m *MockMediaService) UploadAvatar(ctx context.Context, actor identity.Identity, upload service.Upload) (*models.Image, error) {
	return m.image(m.Called(ctx, actor, upload))
}

func (m *MockMediaService) DeleteImage(ctx context.Context, actor identity.Identity, imageID string) error {
	return m.Called(ctx, actor, imageID).Error(0)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Overview(ctx context.Context) (*models.Overview, error) {
	args := m.Called(ctx)
	overview, _ := args.Get(0).(*models.Overview)
	return overview, args.Error(1)
}

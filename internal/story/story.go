// Package story implements editing operations on visual (block based) stories
// and their serialization into Article.Content.
package story

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"storyhub/internal/models"
)

var (
	ErrBlockNotFound     = errors.New("блок не найден")
	ErrIndexOutOfRange   = errors.New("индекс вне диапазона")
	ErrUnknownBlockType  = errors.New("неизвестный тип блока")
	ErrInvalidStory      = errors.New("неверная структура истории")
	validate             = validator.New()
	defaultStoryTitle    = "Untitled Story"
	defaultTextBlockBody = "Start writing your story..."
)

// NewBlock creates a block of the given type with its default content.
func NewBlock(blockType models.BlockType) (models.Block, error) {
	block := models.Block{ID: "block-" + uuid.New().String(), Type: blockType}

	switch blockType {
	case models.BlockImage:
	case models.BlockText:
		block.Content.Text = defaultTextBlockBody
	case models.BlockQuote:
		block.Content.Quote = "Enter quote here"
	default:
		return models.Block{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, blockType)
	}

	return block, nil
}

// New returns an empty story with the default title.
func New() models.VisualStory {
	return models.VisualStory{Title: defaultStoryTitle, Layout: "simple", Blocks: []models.Block{}}
}

// Append adds a new block of the given type at the end of the story.
func Append(s models.VisualStory, blockType models.BlockType) (models.VisualStory, models.Block, error) {
	block, err := NewBlock(blockType)
	if err != nil {
		return s, models.Block{}, err
	}

	blocks := make([]models.Block, 0, len(s.Blocks)+1)
	blocks = append(blocks, s.Blocks...)
	s.Blocks = append(blocks, block)

	return s, block, nil
}

// Update merges the non-empty fields of patch into the block's content.
func Update(s models.VisualStory, blockID string, patch models.BlockContent) (models.VisualStory, error) {
	i := indexOf(s.Blocks, blockID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	blocks := append([]models.Block(nil), s.Blocks...)
	content := &blocks[i].Content
	if patch.Image != "" {
		content.Image = patch.Image
	}
	if patch.Caption != "" {
		content.Caption = patch.Caption
	}
	if patch.Credit != "" {
		content.Credit = patch.Credit
	}
	if patch.Text != "" {
		content.Text = patch.Text
	}
	if patch.Quote != "" {
		content.Quote = patch.Quote
	}
	if patch.Author != "" {
		content.Author = patch.Author
	}

	s.Blocks = blocks
	return s, nil
}

// Remove deletes the block with the given id.
func Remove(s models.VisualStory, blockID string) (models.VisualStory, error) {
	i := indexOf(s.Blocks, blockID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	blocks := make([]models.Block, 0, len(s.Blocks)-1)
	blocks = append(blocks, s.Blocks[:i]...)
	s.Blocks = append(blocks, s.Blocks[i+1:]...)

	return s, nil
}

// Reorder removes the block at index from and inserts it at index to.
// Block identities are preserved and the relative order of the other blocks
// does not change.
func Reorder(blocks []models.Block, from, to int) ([]models.Block, error) {
	if from < 0 || from >= len(blocks) || to < 0 || to >= len(blocks) {
		return blocks, fmt.Errorf("%w: %d -> %d (блоков %d)", ErrIndexOutOfRange, from, to, len(blocks))
	}

	items := append([]models.Block(nil), blocks...)
	moved := items[from]
	items = append(items[:from], items[from+1:]...)

	items = append(items, models.Block{})
	copy(items[to+1:], items[to:])
	items[to] = moved

	return items, nil
}

// Validate checks block ids are present and unique and block types are known.
func Validate(s models.VisualStory) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}

	seen := make(map[string]struct{}, len(s.Blocks))
	for _, block := range s.Blocks {
		if _, dup := seen[block.ID]; dup {
			return fmt.Errorf("%w: повторяющийся id блока %s", ErrInvalidStory, block.ID)
		}
		seen[block.ID] = struct{}{}
	}

	return nil
}

// Encode serializes the story into the article content format.
func Encode(s models.VisualStory) (string, error) {
	if err := Validate(s); err != nil {
		return "", err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации истории: %w", err)
	}

	return string(data), nil
}

// Decode parses article content produced by Encode.
func Decode(content string) (models.VisualStory, error) {
	var s models.VisualStory
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return models.VisualStory{}, fmt.Errorf("%w: %v", ErrInvalidStory, err)
	}

	if s.Blocks == nil {
		s.Blocks = []models.Block{}
	}

	if err := Validate(s); err != nil {
		return models.VisualStory{}, err
	}

	return s, nil
}

// ImageURLs returns the image references of all image blocks in order.
func ImageURLs(s models.VisualStory) []string {
	var urls []string
	for _, block := range s.Blocks {
		if block.Type == models.BlockImage && block.Content.Image != "" {
			urls = append(urls, block.Content.Image)
		}
	}
	return urls
}

func indexOf(blocks []models.Block, id string) int {
	for i, block := range blocks {
		if block.ID == id {
			return i
		}
	}
	return -1
}

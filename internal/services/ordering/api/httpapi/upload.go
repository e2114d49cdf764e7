package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/services/ordering/catalog"
	"github.com/tableside/tableside/internal/services/ordering/storage"
)

const (
	imageFormField = "imageFile"
	jpegQuality    = 80
)

// maxPlainImageID bounds ids used verbatim in asset file names.
const maxPlainImageID = 64

var plainFileID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// imageName returns the asset file name for a menu item's uploaded image.
// Plain ids keep the menu_<id>.jpeg form. Any other id is hashed under a
// "menu." prefix, which plain names never use, so distinct ids never share
// a file.
func imageName(id string) string {
	if len(id) <= maxPlainImageID && plainFileID.MatchString(id) {
		return "menu_" + id + ".jpeg"
	}
	sum := sha256.Sum256([]byte(id))
	return "menu." + hex.EncodeToString(sum[:]) + ".jpeg"
}

// stagedImage is an uploaded image re-encoded to JPEG in a temp file inside
// the assets directory, waiting to be committed under its final name.
type stagedImage struct {
	tempPath  string
	finalPath string
	name      string
}

func (s *stagedImage) commit() error {
	if s == nil {
		return nil
	}
	if err := os.Rename(s.tempPath, s.finalPath); err != nil {
		_ = os.Remove(s.tempPath)
		return fmt.Errorf("store image %s: %w", s.name, err)
	}
	return nil
}

func (s *stagedImage) discard() {
	if s == nil {
		return
	}
	_ = os.Remove(s.tempPath)
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, invalidBody(err.Error())
	}
	return r.MultipartForm, nil
}

// stageImage decodes the uploaded imageFile, if any, and writes it as JPEG
// to a temp file in the assets directory.
func (h *Handler) stageImage(form *multipart.Form, id string) (*stagedImage, error) {
	headers := form.File[imageFormField]
	if len(headers) == 0 {
		return nil, nil
	}
	if h.assetsDir == "" {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidInput, "image uploads are disabled", map[string]string{"Field": imageFormField})
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, invalidImage(err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, invalidImage(err)
	}
	if err := os.MkdirAll(h.assetsDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "create assets dir", err)
	}
	temp, err := os.CreateTemp(h.assetsDir, ".upload-*.jpeg")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "create image file", err)
	}
	if err := writeJPEG(temp, img); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "encode image", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "close image file", err)
	}
	name := imageName(id)
	return &stagedImage{
		tempPath:  temp.Name(),
		finalPath: filepath.Join(h.assetsDir, name),
		name:      name,
	}, nil
}

func writeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
}

func invalidImage(err error) error {
	return &apperrors.Error{
		Code:     apperrors.CodeInvalidInput,
		Message:  "image file could not be decoded",
		Metadata: map[string]string{"Field": imageFormField},
		Cause:    err,
	}
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on":
		return true
	default:
		return false
	}
}

func formPrice(value string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidInput, "price is not a number", map[string]string{"Field": "price"})
	}
	return price, nil
}

func formOptions(value string) ([]storage.MenuOption, error) {
	if strings.TrimSpace(value) == "" {
		return []storage.MenuOption{}, nil
	}
	var options []storage.MenuOption
	if err := json.Unmarshal([]byte(value), &options); err != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidInput, "options are not valid JSON", map[string]string{"Field": "options"})
	}
	return options, nil
}

func menuInputFromForm(form *multipart.Form) (catalog.MenuItemInput, error) {
	var in catalog.MenuItemInput
	in.ID, _ = formValue(form, "id")
	in.Name, _ = formValue(form, "name")
	in.Description, _ = formValue(form, "description")
	in.Category, _ = formValue(form, "category")
	in.Image, _ = formValue(form, "image")
	if raw, ok := formValue(form, "price"); ok {
		price, err := formPrice(raw)
		if err != nil {
			return catalog.MenuItemInput{}, err
		}
		in.Price = price
	} else {
		return catalog.MenuItemInput{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, "price is required", map[string]string{"Field": "price"})
	}
	if raw, ok := formValue(form, "options"); ok {
		options, err := formOptions(raw)
		if err != nil {
			return catalog.MenuItemInput{}, err
		}
		in.Options = options
	}
	if raw, ok := formValue(form, "isRecommended"); ok {
		in.IsRecommended = formBool(raw)
	}
	return in, nil
}

func menuUpdateFromForm(form *multipart.Form) (catalog.MenuItemUpdate, error) {
	var in catalog.MenuItemUpdate
	if raw, ok := formValue(form, "name"); ok {
		in.Name = &raw
	}
	if raw, ok := formValue(form, "description"); ok {
		in.Description = &raw
	}
	if raw, ok := formValue(form, "category"); ok {
		in.Category = &raw
	}
	if raw, ok := formValue(form, "image"); ok {
		in.Image = &raw
	}
	if raw, ok := formValue(form, "price"); ok {
		price, err := formPrice(raw)
		if err != nil {
			return catalog.MenuItemUpdate{}, err
		}
		in.Price = &price
	}
	if raw, ok := formValue(form, "options"); ok {
		options, err := formOptions(raw)
		if err != nil {
			return catalog.MenuItemUpdate{}, err
		}
		in.Options = &options
	}
	if raw, ok := formValue(form, "isRecommended"); ok {
		recommended := formBool(raw)
		in.IsRecommended = &recommended
	}
	return in, nil
}

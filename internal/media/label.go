package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vsgtalent-backend/internal/mediatypes"
)

// Brand is appended to generated labels and alt texts.
const Brand = "VSG Talent"

// LabelContext selects which attachment field a label is generated for.
type LabelContext string

const (
	ContextTitle       LabelContext = "title"
	ContextAlt         LabelContext = "alt"
	ContextCaption     LabelContext = "caption"
	ContextDescription LabelContext = "description"
)

var dutchMonths = [...]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

// FormatPublishDate renders a date the way labels embed it: "3 maart 2024".
func FormatPublishDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
}

// BaseLabel builds the shared label stem from a content title and optional
// publish date.
func BaseLabel(title string, published *time.Time) string {
	title = strings.TrimSpace(title)
	if published != nil {
		return title + " – " + FormatPublishDate(*published)
	}
	return title
}

// TypeTag returns the sequential human-readable tag for the nth media item
// of a type, such as "afbeelding 3" or "video 1".
func TypeTag(mt mediatypes.MediaType, index int) string {
	return typeWord(mt) + " " + fmt.Sprint(index)
}

func typeWord(mt mediatypes.MediaType) string {
	switch mt {
	case mediatypes.MediaTypeVideo:
		return "video"
	case mediatypes.MediaTypeImage:
		return "afbeelding"
	default:
		return "bestand"
	}
}

// Label generates the text for one attachment field. Alt text is always
// non-empty for images so every rendered <img> has a usable description.
func Label(base string, mt mediatypes.MediaType, index int, ctx LabelContext) string {
	tag := TypeTag(mt, index)
	switch ctx {
	case ContextTitle:
		return base + " – " + tag
	case ContextAlt:
		return base + " – " + tag + " – " + Brand
	case ContextCaption:
		return base + " (" + tag + ")"
	case ContextDescription:
		return tag + " bij " + base + " – " + Brand
	default:
		return base
	}
}

// Labels returns all four generated fields for an attachment.
func Labels(base string, mt mediatypes.MediaType, index int) map[LabelContext]string {
	out := make(map[LabelContext]string, 4)
	for _, ctx := range []LabelContext{ContextTitle, ContextAlt, ContextCaption, ContextDescription} {
		out[ctx] = Label(base, mt, index, ctx)
	}
	return out
}

var slugReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ç", "c", "ñ", "n", "ß", "ss",
)

// Slugify lowercases a title and reduces it to hyphen-separated ASCII.
func Slugify(s string) string {
	s = slugReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Filename builds the canonical attachment filename for the nth media item
// of a content item: "{slug}-{type}-{index}{ext}".
func Filename(contentSlug string, mt mediatypes.MediaType, index int, ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") && ext != "" {
		ext = "." + ext
	}
	return fmt.Sprintf("%s-%s-%d%s", contentSlug, typeWord(mt), index, ext)
}

// UniquePath returns a path in dir for filename that does not collide with
// an existing file, appending a numeric suffix when needed.
func UniquePath(dir, filename string) string {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 2; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

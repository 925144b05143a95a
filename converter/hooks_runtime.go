package converter

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

func (s *state) applyLinkRenderHook(input LinkRenderInput) (LinkRenderOutput, bool, error) {
	if s.config.LinkHook == nil {
		return LinkRenderOutput{}, false, nil
	}

	if err := s.checkContext(); err != nil {
		return LinkRenderOutput{}, false, err
	}

	output, err := s.config.LinkHook(s.ctx, input)
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			if s.config.ResolutionMode == ResolutionStrict {
				return LinkRenderOutput{}, false, fmt.Errorf("unresolved link reference %q at %s: %w", input.Href, s.path(), err)
			}
			s.addWarning(
				WarningUnresolvedReference,
				KindReference,
				fmt.Sprintf("unresolved link reference %q; using fallback rendering", input.Href),
			)
			return LinkRenderOutput{}, false, nil
		}
		return LinkRenderOutput{}, false, fmt.Errorf("link hook failed: %w", err)
	}

	if !output.Handled {
		return LinkRenderOutput{}, false, nil
	}

	if err := validateLinkRenderOutput(output); err != nil {
		return LinkRenderOutput{}, false, fmt.Errorf("invalid link hook output: %w", err)
	}

	output.Href = strings.TrimSpace(output.Href)
	output.Title = strings.TrimSpace(output.Title)

	return output, true, nil
}

func (s *state) applyImageRenderHook(input ImageRenderInput) (ImageRenderOutput, bool, error) {
	if s.config.ImageHook == nil {
		return ImageRenderOutput{}, false, nil
	}

	if err := s.checkContext(); err != nil {
		return ImageRenderOutput{}, false, err
	}

	output, err := s.config.ImageHook(s.ctx, input)
	if err != nil {
		if errors.Is(err, ErrUnresolved) {
			if s.config.ResolutionMode == ResolutionStrict {
				return ImageRenderOutput{}, false, fmt.Errorf("unresolved image reference %q at %s: %w", input.URI, s.path(), err)
			}
			s.addWarning(
				WarningUnresolvedReference,
				KindImage,
				fmt.Sprintf("unresolved image reference %q; using fallback rendering", input.URI),
			)
			return ImageRenderOutput{}, false, nil
		}
		return ImageRenderOutput{}, false, fmt.Errorf("image hook failed: %w", err)
	}

	if !output.Handled {
		return ImageRenderOutput{}, false, nil
	}

	if strings.TrimSpace(output.Markdown) == "" {
		return ImageRenderOutput{}, false, errors.New("invalid image hook output: handled output requires non-empty markdown")
	}

	return output, true, nil
}

func validateLinkRenderOutput(output LinkRenderOutput) error {
	if output.TextOnly {
		return nil
	}
	if strings.TrimSpace(output.Href) == "" {
		return errors.New("handled link render output requires non-empty href unless textOnly is true")
	}
	return nil
}

// parseReferenceDetails splits a URI into its base filename and fragment.
func parseReferenceDetails(reference string) (string, string) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", ""
	}

	anchor := ""
	referencePath := reference
	if parsed, err := url.Parse(reference); err == nil {
		anchor = strings.TrimSpace(parsed.Fragment)
		if parsed.Path != "" {
			referencePath = parsed.Path
		} else if parsed.Fragment != "" || parsed.Host != "" {
			referencePath = ""
		}
	} else if hashIndex := strings.LastIndex(reference, "#"); hashIndex >= 0 {
		anchor = strings.TrimSpace(reference[hashIndex+1:])
		referencePath = reference[:hashIndex]
	}

	referencePath = strings.TrimRight(strings.ReplaceAll(referencePath, "\\", "/"), "/")
	if referencePath == "" {
		return "", anchor
	}

	filename := strings.TrimSpace(path.Base(referencePath))
	if filename == "." || filename == "/" {
		filename = ""
	}

	return filename, anchor
}

// cloneAnyMap returns a deep copy so hooks cannot mutate the input tree.
func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneAnyValue(value)
	}

	return dst
}

func cloneAnyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneAnyMap(typed)
	case []any:
		cloned := make([]any, len(typed))
		for index := range typed {
			cloned[index] = cloneAnyValue(typed[index])
		}
		return cloned
	default:
		return value
	}
}

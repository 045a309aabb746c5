package rupture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"attune/internal/logging"
)

// lexiconFile is the YAML shape of an external cue list override.
type lexiconFile struct {
	Rules []lexiconRule `yaml:"rules"`
}

type lexiconRule struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Confidence float64  `yaml:"confidence"`
	Cues       []string `yaml:"cues"`
}

var validCategories = map[Category]bool{
	CategoryExplicitAnger: true,
	CategoryMisattunement: true,
	CategoryWithdrawal:    true,
	CategoryInvalidation:  true,
}

// LoadLexicon parses a YAML lexicon into an ordered rule list. Rules with
// unknown categories, no cues, or out-of-range confidence are rejected so a
// half-edited file cannot silently weaken detection.
func LoadLexicon(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("lexicon %s contains no rules", path)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, lr := range file.Rules {
		cat := Category(lr.Category)
		if !validCategories[cat] {
			return nil, fmt.Errorf("lexicon rule %q has unknown category %q", lr.Name, lr.Category)
		}
		if len(lr.Cues) == 0 {
			return nil, fmt.Errorf("lexicon rule %q has no cues", lr.Name)
		}
		if lr.Confidence <= 0 || lr.Confidence > 1 {
			return nil, fmt.Errorf("lexicon rule %q has confidence %v outside (0,1]", lr.Name, lr.Confidence)
		}
		rules = append(rules, Rule{
			Name:       lr.Name,
			Category:   cat,
			Confidence: lr.Confidence,
			Cues:       lr.Cues,
		})
	}
	return rules, nil
}

// Watcher hot-reloads a lexicon file into a detector. A reload that fails
// validation keeps the previous rule list.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchLexicon loads path into the detector immediately and swaps the rule
// list on every subsequent write to the file. Call Close on shutdown.
func WatchLexicon(path string, d *Detector) (*Watcher, error) {
	rules, err := LoadLexicon(path)
	if err != nil {
		return nil, err
	}
	d.ReplaceRules(rules)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create lexicon watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch lexicon dir: %w", err)
	}

	w := &Watcher{watcher: fsw, done: make(chan struct{})}
	go w.loop(path, d)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) loop(path string, d *Detector) {
	log := logging.Get(logging.CategoryRupture)
	target := filepath.Clean(path)

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			rules, err := LoadLexicon(path)
			if err != nil {
				log.Warn("lexicon reload rejected", zap.Error(err))
				continue
			}
			d.ReplaceRules(rules)
			log.Info("lexicon reloaded", zap.Int("rules", len(rules)))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("lexicon watcher error", zap.Error(err))
		}
	}
}

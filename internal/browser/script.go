package browser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fakeyudi/clicktrail/internal/annotate"
	"github.com/fakeyudi/clicktrail/internal/recorder"
	"github.com/fakeyudi/clicktrail/internal/session"
)

const (
	bindingName   = "__clicktrailEmit"
	targetsVar    = "__clicktrailTargets"
	overlayAttr   = "data-clicktrail-overlay"
	overlayZIndex = 2147483647

	// maxTargets bounds the page-side target map; the oldest entry is evicted.
	maxTargets = 512
)

// payload is what the in-page listener sends through the binding.
type payload struct {
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Path    string `json:"path"`
	Element struct {
		Tag         string `json:"tag"`
		ID          string `json:"id"`
		ClassName   string `json:"className"`
		AriaLabel   string `json:"ariaLabel"`
		Label       string `json:"label"`
		InnerText   string `json:"innerText"`
		TextContent string `json:"textContent"`
	} `json:"element"`
}

// decodeInteraction turns a binding payload into an Interaction.
func decodeInteraction(raw string, at time.Time) (recorder.Interaction, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return recorder.Interaction{}, fmt.Errorf("decode interaction: %w", err)
	}
	kind, err := session.ParseEventKind(p.Kind)
	if err != nil {
		return recorder.Interaction{}, err
	}
	if p.Target == "" {
		return recorder.Interaction{}, fmt.Errorf("decode interaction: missing target")
	}
	return recorder.Interaction{
		Kind:   kind,
		Target: p.Target,
		Path:   p.Path,
		At:     at,
		Element: session.Element{
			Tag:         p.Element.Tag,
			ID:          p.Element.ID,
			ClassName:   p.Element.ClassName,
			AriaLabel:   p.Element.AriaLabel,
			LabelAttr:   p.Element.Label,
			InnerText:   p.Element.InnerText,
			TextContent: p.Element.TextContent,
		},
	}, nil
}

// listenerScript is installed on every new document. It registers each event
// target in a bounded page-side map under a fresh id, leaving the host DOM
// untouched, and reports the interaction through the binding.
func listenerScript() string {
	kinds, _ := json.Marshal(session.Kinds())
	return fmt.Sprintf(`(() => {
  if (window.%[2]s) return;
  const targets = window.%[2]s = new Map();
  let seq = 0;
  const text = (v) => (typeof v === "string" ? v : "");
  for (const kind of %[1]s) {
    document.addEventListener(kind, (ev) => {
      const el = ev.target instanceof Element ? ev.target : null;
      if (!el || el.hasAttribute(%[3]q)) return;
      const id = String(++seq);
      targets.set(id, el);
      if (targets.size > %[5]d) targets.delete(targets.keys().next().value);
      window.%[4]s(JSON.stringify({
        kind: kind,
        target: id,
        path: location.pathname,
        element: {
          tag: el.tagName,
          id: text(el.id),
          className: text(el.className),
          ariaLabel: el.getAttribute("aria-label") || "",
          label: el.getAttribute("label") || "",
          innerText: text(el.innerText),
          textContent: text(el.textContent),
        },
      }));
    }, true);
  }
})();`, kinds, targetsVar, overlayAttr, bindingName, maxTargets)
}

// rectResult is the viewport rectangle of a tagged element plus the current
// scroll offsets.
type rectResult struct {
	Found   bool    `json:"found"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

func (r rectResult) pageRect() annotate.Rect {
	return annotate.PageRect(annotate.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, r.ScrollX, r.ScrollY)
}

// measureScript reports the rectangle of a registered target. A target the
// page has since detached measures as an empty rectangle.
func measureScript(target string) string {
	return fmt.Sprintf(`(() => {
  const targets = window.%s;
  const el = targets && targets.get(%s);
  if (!el) return {found: false};
  const r = el.getBoundingClientRect();
  return {found: true, x: r.left, y: r.top, width: r.width, height: r.height,
          scrollX: window.scrollX, scrollY: window.scrollY};
})()`, targetsVar, jsString(target))
}

func showScript(id string, r annotate.Rect) string {
	return fmt.Sprintf(`(() => {
  const d = document.createElement("div");
  d.setAttribute(%q, %s);
  d.style.cssText = "position:absolute;left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;" +
    "border:2px solid red;box-sizing:border-box;pointer-events:none;z-index:%d";
  (document.body || document.documentElement).appendChild(d);
  return true;
})()`, overlayAttr, jsString(id), r.X, r.Y, r.Width, r.Height, overlayZIndex)
}

// hideScript removes an overlay and forgets the target it surrounded.
func hideScript(id, target string) string {
	return fmt.Sprintf(`(() => {
  const d = document.querySelector('[%s="' + CSS.escape(%s) + '"]');
  if (d) d.remove();
  if (window.%s) window.%s.delete(%s);
  return true;
})()`, overlayAttr, jsString(id), targetsVar, targetsVar, jsString(target))
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

package server

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/buffer"
)

// PageData is what the index page is rendered from.
type PageData struct {
	History []api.HistoryEntry
	Stats   api.StatsSnapshot
	Version string
}

// pageWriter stops writing after the first error.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) render(ctx context.Context, c templ.Component) {
	if p.err == nil {
		p.err = c.Render(ctx, p.w)
	}
}

// Page is the calculator page.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(pageHead)
		p.raw(`<main class="calc"><section class="screen">`)
		p.raw(`<div id="expr" class="expr"></div><div id="result" class="result">0</div>`)
		p.raw(`<div id="status" class="status" role="status" aria-live="polite"></div></section>`)
		p.raw(`<button id="mode" type="button" data-mode="standard">Standard</button>`)
		p.raw(keypad)
		p.raw(`</main><aside class="panel">`)
		p.render(ctx, StatsPanel(data.Stats))
		p.render(ctx, HistoryList(data.History))
		p.raw(`<button id="clear-history" type="button">Clear history</button></aside>`)
		p.raw(`<footer>abacus `)
		p.text(data.Version)
		p.raw(`</footer><script>`)
		p.raw(pageScript)
		p.raw(`</script></body></html>`)
		return p.err
	})
}

// StatsPanel renders the total and the time of the latest evaluation.
func StatsPanel(stats api.StatsSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		last := "—"
		if stats.Last != nil && *stats.Last != "" {
			last = *stats.Last
		}
		p := &pageWriter{w: w}
		p.raw(`<dl class="stats"><dt>Total</dt><dd id="stat-total">`)
		p.text(strconv.Itoa(stats.Total))
		p.raw(`</dd><dt>Last</dt><dd id="stat-last">`)
		p.text(last)
		p.raw(`</dd></dl>`)
		return p.err
	})
}

// HistoryList renders the history rows, newest first.
func HistoryList(items []api.HistoryEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<h2>History <span id="history-count">`)
		p.text(strconv.Itoa(len(items)))
		p.raw(`</span></h2><ul id="history">`)
		if len(items) == 0 {
			p.raw(`<li class="placeholder">No history yet</li>`)
		}
		for _, item := range items {
			p.raw(`<li class="row" data-expression="`)
			p.text(item.Expression)
			p.raw(`" data-result="`)
			p.text(item.Result)
			p.raw(`"><span class="h-expr">`)
			p.text(buffer.Prettify(item.Expression))
			p.raw(`</span><span class="h-result">`)
			p.text(item.Result)
			p.raw(`</span><span class="h-meta">`)
			p.text(fmt.Sprintf("Mode: %s • %s", item.Mode, item.CreatedAt))
			p.raw(`</span></li>`)
		}
		p.raw(`</ul>`)
		return p.err
	})
}

const pageHead = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Abacus</title>
<style>
body { font-family: system-ui, sans-serif; display: flex; gap: 24px; margin: 24px; background: #f5f5f5; }
.calc, .panel { background: white; border-radius: 8px; padding: 16px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
.screen { text-align: right; min-height: 96px; }
.expr { color: #666; min-height: 1.2em; }
.result { font-size: 2em; }
.shake { animation: shake 0.3s; }
@keyframes shake { 25% { transform: translateX(-4px); } 75% { transform: translateX(4px); } }
.keys { display: grid; grid-template-columns: repeat(4, 56px); gap: 8px; }
.keys .sci { display: none; }
.scientific .keys .sci { display: block; }
.row { cursor: pointer; }
.h-meta { display: block; font-size: 12px; color: #666; }
</style></head><body>`

const keypad = `<div class="keys">` +
	`<button data-key="sin(" class="sci">sin</button><button data-key="cos(" class="sci">cos</button>` +
	`<button data-key="tan(" class="sci">tan</button><button data-key="sqrt(" class="sci">√</button>` +
	`<button data-key="log(" class="sci">log</button><button data-key="ln(" class="sci">ln</button>` +
	`<button data-key="pi" class="sci">π</button><button data-key="e" class="sci">e</button>` +
	`<button data-key="(" class="sci">(</button><button data-key=")" class="sci">)</button>` +
	`<button data-key="abs(" class="sci">|x|</button><button data-key="atan(" class="sci">atan</button>` +
	`<button data-action="clear">C</button><button data-action="backspace">⌫</button>` +
	`<button data-key="%">%</button><button data-key="/">÷</button>` +
	`<button data-key="7">7</button><button data-key="8">8</button><button data-key="9">9</button><button data-key="*">×</button>` +
	`<button data-key="4">4</button><button data-key="5">5</button><button data-key="6">6</button><button data-key="-">−</button>` +
	`<button data-key="1">1</button><button data-key="2">2</button><button data-key="3">3</button><button data-key="+">+</button>` +
	`<button data-key="0">0</button><button data-key=".">.</button><button data-action="equals">=</button>` +
	`</div>`

const pageScript = `
(function () {
  var ops = "+-*/", expr = "", lastWasResult = false, seq = 0;
  var $ = function (id) { return document.getElementById(id); };
  var mode = localStorage.getItem("calc_mode") === "scientific" ? "scientific" : "standard";
  function pretty(s) { return s.replace(/\*/g, "×").replace(/\//g, "÷").replace(/-/g, "−"); }
  function show() { $("expr").textContent = pretty(expr); }
  function status(text, ttl) {
    $("status").textContent = text;
    if (ttl) setTimeout(function () { if ($("status").textContent === text) $("status").textContent = ""; }, ttl);
  }
  function applyMode() {
    document.body.classList.toggle("scientific", mode === "scientific");
    $("mode").textContent = mode === "scientific" ? "Scientific" : "Standard";
  }
  function append(t) {
    if (lastWasResult && /^[0-9.]$/.test(t)) expr = "";
    lastWasResult = false;
    if (t.length === 1 && ops.indexOf(t) >= 0) {
      if (expr === "") { if (t === "-") expr = "-"; }
      else if (ops.indexOf(expr.slice(-1)) >= 0) expr = expr.slice(0, -1) + t;
      else expr += t;
    } else expr += t;
    show();
  }
  function sync() {
    fetch("/api/history").then(function (r) { return r.json(); }).then(function (d) {
      if (!d.ok) return;
      var ul = $("history"); ul.innerHTML = "";
      $("history-count").textContent = d.items.length;
      if (!d.items.length) { var li = document.createElement("li"); li.className = "placeholder"; li.textContent = "No history yet"; ul.appendChild(li); }
      d.items.forEach(function (it) {
        var li = document.createElement("li"); li.className = "row";
        li.dataset.expression = it.expression; li.dataset.result = it.result;
        li.textContent = pretty(it.expression) + " = " + it.result + "  Mode: " + it.mode + " • " + it.created_at;
        ul.appendChild(li);
      });
    }).catch(function () {});
    fetch("/api/stats").then(function (r) { return r.json(); }).then(function (d) {
      if (!d.ok) return;
      $("stat-total").textContent = d.total; $("stat-last").textContent = d.last || "—";
    }).catch(function () {});
  }
  function fail(msg) {
    status(msg);
    $("result").classList.add("shake");
    setTimeout(function () { $("result").classList.remove("shake"); }, 300);
  }
  function equals() {
    if (!expr) return;
    var mine = ++seq, sent = expr;
    status("Calculating...");
    fetch("/api/eval", { method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify({ expression: sent, mode: mode }) })
      .then(function (r) { return r.json().then(function (d) { return { ok: r.ok && d.ok, d: d }; }); })
      .then(function (res) {
        if (mine !== seq) return;
        if (!res.ok) { fail(res.d.error || "Invalid"); return; }
        $("result").textContent = res.d.result; status("OK");
        if (expr === sent) { expr = res.d.result; lastWasResult = true; show(); }
        sync();
      })
      .catch(function () { if (mine === seq) fail("Invalid"); });
  }
  var actions = {
    clear: function () { expr = ""; lastWasResult = false; show(); $("result").textContent = "0"; status(""); },
    backspace: function () { expr = expr.slice(0, -1); show(); },
    equals: equals
  };
  document.querySelector(".keys").addEventListener("click", function (ev) {
    var b = ev.target.closest("button"); if (!b) return;
    if (b.dataset.key) append(b.dataset.key); else if (actions[b.dataset.action]) actions[b.dataset.action]();
  });
  document.addEventListener("keydown", function (ev) {
    if (ev.key === "Escape") actions.clear();
    else if (ev.key === "Backspace") actions.backspace();
    else if (ev.key === "Enter" || ev.key === "=") { ev.preventDefault(); equals(); }
    else if (/^[0-9.%+\-*/]$/.test(ev.key)) append(ev.key);
  });
  $("mode").addEventListener("click", function () {
    mode = mode === "scientific" ? "standard" : "scientific";
    localStorage.setItem("calc_mode", mode); applyMode();
    status(mode === "scientific" ? "Scientific mode ON" : "Standard mode ON", 900);
  });
  $("history").addEventListener("click", function (ev) {
    var li = ev.target.closest("li.row"); if (!li) return;
    expr = li.dataset.expression; lastWasResult = false; show();
    $("result").textContent = li.dataset.result; status("Loaded", 700);
  });
  $("clear-history").addEventListener("click", function () {
    fetch("/api/history/clear", { method: "POST" }).then(function (r) { if (r.ok) status("History cleared", 900); })
      .catch(function () {}).then(sync);
  });
  try {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function (m) { try { if (JSON.parse(m.data).type === "history_updated") sync(); } catch (e) {} };
  } catch (e) {}
  applyMode(); show();
})();
`

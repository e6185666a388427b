package site

// pageTemplate is the Go html/template for the gallery page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="{{.AssetURL "style.css"}}">
</head>
<body{{if .LiveURL}} data-live="{{.LiveURL}}"{{end}}{{if .ManifestURL}} data-manifest="{{.ManifestURL}}"{{end}} data-base="{{.BasePath}}" data-theme-url="{{.AssetURL "api/preferences/theme"}}">
  <header class="top-bar">
    <h1 class="gallery-title">{{.Title}}</h1>
    <div class="actions">
      <a class="button" id="refresh" href="{{.RetryURL}}" aria-label="Refresh gallery">Refresh</a>
      <button class="button theme-toggle" id="theme-toggle" aria-label="Toggle theme">
        <svg class="sun-icon" width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
          <circle cx="12" cy="12" r="5"/><line x1="12" y1="1" x2="12" y2="3"/><line x1="12" y1="21" x2="12" y2="23"/><line x1="1" y1="12" x2="3" y2="12"/><line x1="21" y1="12" x2="23" y2="12"/>
        </svg>
        <svg class="moon-icon" width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
          <path d="M21 12.79A9 9 0 1 1 11.21 3 7 7 0 0 0 21 12.79z"/>
        </svg>
      </button>
    </div>
  </header>
  <main class="content">
    {{if .Description}}<section class="description">{{.Description}}</section>{{end}}
    <p class="summary" id="summary"{{if .Error}} hidden{{end}}>{{if not .Error}}Found {{.Count}} image{{if ne .Count 1}}s{{end}}. Click an image to view full size.{{end}}</p>
    <div class="gallery" id="gallery" data-strategy="{{.Strategy}}">
      {{if .Error}}{{template "error" .Error}}{{else}}{{range .Catalog}}
      <figure class="card" data-src="{{.Path}}" data-title="{{.Title}}" tabindex="0">
        <img src="{{.Path}}" alt="{{.Title}}" loading="lazy" decoding="async">
        <figcaption>{{.Title}}</figcaption>
      </figure>
      {{end}}{{end}}
    </div>
  </main>
  <div class="lightbox" id="lightbox" aria-hidden="true">
    <div class="lightbox-toolbar">
      <span class="lightbox-title" id="lightbox-title"></span>
      <span class="readout" id="zoom-level">100%</span>
      <span class="readout" id="image-size"></span>
      <span class="readout" id="image-dimensions">--- × ---</span>
      <button class="button" id="zoom-out" aria-label="Zoom out">−</button>
      <button class="button" id="zoom-in" aria-label="Zoom in">+</button>
      <button class="button" id="reset" aria-label="Reset view">Reset</button>
      <button class="button" id="download" aria-label="Download">Download</button>
      <button class="button" id="close" aria-label="Close">×</button>
    </div>
    <div class="lightbox-stage" id="lightbox-stage">
      <img id="lightbox-image" alt="" draggable="false">
    </div>
    <div class="lightbox-error" id="lightbox-error" hidden>
      <p id="lightbox-error-text"></p>
      <button class="button" id="dismiss">OK</button>
    </div>
  </div>
  <footer class="footer">&copy; {{.Year}} {{.Title}}</footer>
  <script src="{{.AssetURL "script.js"}}"></script>
</body>
</html>

{{define "error"}}
    <section class="discovery-error" id="discovery-error" data-kind="{{.Kind}}">
      <h2>Unable to load the gallery</h2>
      <p class="error-message">{{.Message}}</p>
      {{if .Remediation}}
      <ul class="remediation">
        {{range .Remediation}}<li>{{.}}</li>{{end}}
      </ul>
      {{end}}
      <div class="error-actions">
        <a class="button" id="retry" href="{{.RetryURL}}">Retry</a>
        <a class="button" href="{{.ManifestURL}}" target="_blank" rel="noopener">Open raw manifest</a>
      </div>
      <details class="debug">
        <summary>Debug info</summary>
        <dl>
          <dt>Request URL</dt><dd>{{.RequestURL}}</dd>
          <dt>Base path</dt><dd>{{.BasePath}}</dd>
          {{range .Attempts}}<dt>Attempt</dt><dd>{{.}}</dd>{{end}}
        </dl>
      </details>
    </section>
{{end}}`

// cssContent is the stylesheet for the gallery page.
const cssContent = `/* ============ CSS Variables ============ */
:root {
  --bg: #ffffff;
  --bg-secondary: #f8f9fa;
  --text: #212529;
  --text-muted: #868e96;
  --border: #dee2e6;
  --accent: #228be6;
  --danger: #e03131;
  --shadow: 0 1px 3px rgba(0,0,0,0.08);
  --shadow-lg: 0 4px 12px rgba(0,0,0,0.12);
}

[data-theme="dark"] {
  --bg: #1a1b26;
  --bg-secondary: #1f2030;
  --text: #c0caf5;
  --text-muted: #565f89;
  --border: #292e42;
  --accent: #7aa2f7;
  --danger: #f7768e;
  --shadow: 0 1px 3px rgba(0,0,0,0.3);
  --shadow-lg: 0 4px 12px rgba(0,0,0,0.4);
}

/* ============ Reset & Base ============ */
*, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
  color: var(--text);
  background: var(--bg);
  line-height: 1.6;
  min-height: 100vh;
  display: flex;
  flex-direction: column;
}

body.scroll-locked { overflow: hidden; }

/* ============ Header ============ */
.top-bar {
  display: flex;
  align-items: center;
  justify-content: space-between;
  padding: 1rem 1.5rem;
  border-bottom: 1px solid var(--border);
  background: var(--bg-secondary);
}

.actions { display: flex; gap: 0.5rem; }

.button {
  display: inline-flex;
  align-items: center;
  gap: 0.25rem;
  padding: 0.4rem 0.8rem;
  border: 1px solid var(--border);
  border-radius: 6px;
  background: var(--bg);
  color: var(--text);
  font-size: 0.9rem;
  text-decoration: none;
  cursor: pointer;
}

.button:hover { border-color: var(--accent); color: var(--accent); }

.theme-toggle .moon-icon { display: none; }
[data-theme="dark"] .theme-toggle .sun-icon { display: none; }
[data-theme="dark"] .theme-toggle .moon-icon { display: inline; }

/* ============ Grid ============ */
.content { flex: 1; padding: 1.5rem; max-width: 1400px; width: 100%; margin: 0 auto; }
.description { margin-bottom: 1rem; color: var(--text-muted); }
.summary { margin-bottom: 1rem; color: var(--text-muted); }

.gallery {
  display: grid;
  grid-template-columns: repeat(auto-fill, minmax(220px, 1fr));
  gap: 1rem;
}

.card {
  border-radius: 8px;
  overflow: hidden;
  background: var(--bg-secondary);
  box-shadow: var(--shadow);
  cursor: pointer;
  transition: transform 0.15s, box-shadow 0.15s;
}

.card:hover { transform: translateY(-2px); box-shadow: var(--shadow-lg); }
.card img { display: block; width: 100%; aspect-ratio: 4 / 3; object-fit: cover; }
.card figcaption { padding: 0.5rem 0.75rem; font-size: 0.85rem; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
.card.broken { opacity: 0.35; cursor: not-allowed; }

/* ============ Discovery error ============ */
.discovery-error {
  grid-column: 1 / -1;
  padding: 2rem;
  border: 1px solid var(--danger);
  border-radius: 8px;
  background: var(--bg-secondary);
}

.discovery-error h2 { color: var(--danger); margin-bottom: 0.5rem; }
.remediation { margin: 1rem 0 1rem 1.5rem; }
.error-actions { display: flex; gap: 0.5rem; margin-bottom: 1rem; }
.debug dl { display: grid; grid-template-columns: max-content 1fr; gap: 0.25rem 1rem; margin-top: 0.5rem; font-family: monospace; font-size: 0.85rem; }

/* ============ Lightbox ============ */
.lightbox {
  position: fixed;
  inset: 0;
  display: none;
  flex-direction: column;
  background: rgba(0,0,0,0.9);
  z-index: 100;
}

.lightbox.show { display: flex; }

.lightbox-toolbar {
  display: flex;
  align-items: center;
  gap: 0.5rem;
  padding: 0.5rem 1rem;
  color: #fff;
}

.lightbox-title { flex: 1; font-weight: 600; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
.readout { font-family: monospace; font-size: 0.85rem; color: #ced4da; }

.lightbox-stage {
  flex: 1;
  display: flex;
  align-items: center;
  justify-content: center;
  overflow: hidden;
}

.lightbox-stage img {
  max-width: 100%;
  max-height: 100%;
  cursor: grab;
  user-select: none;
  transform-origin: center center;
}

.lightbox-stage img[data-dragging] { cursor: grabbing; }

.lightbox-error {
  position: absolute;
  top: 50%;
  left: 50%;
  transform: translate(-50%, -50%);
  padding: 1.5rem;
  border-radius: 8px;
  background: var(--bg);
  color: var(--text);
  text-align: center;
}

.lightbox-error p { margin-bottom: 1rem; }

.footer { padding: 1rem; text-align: center; color: var(--text-muted); font-size: 0.85rem; }
`

// jsContent is the browser glue for the gallery page. In live mode every
// viewer input is forwarded to the server over a websocket and the returned
// snapshot is rendered; for static hosting a local engine applies the same
// rules.
const jsContent = `(function() {
  "use strict";

  var MIN_SCALE = 0.3, MAX_SCALE = 4, SCALE_STEP = 0.25, WHEEL_FACTOR = 0.01;
  var html = document.documentElement;
  var body = document.body;
  var liveURL = body.getAttribute("data-live");

  // ===== Theme =====
  function storedTheme() {
    try { return localStorage.getItem("theme"); } catch (e) { return null; }
  }

  function setTheme(theme, persist) {
    html.setAttribute("data-theme", theme);
    if (!persist) return;
    try { localStorage.setItem("theme", theme); } catch (e) {}
    if (liveURL) {
      fetch(body.getAttribute("data-theme-url"), {
        method: "PUT",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify({ theme: theme })
      }).catch(function() {});
    }
  }

  var stored = storedTheme();
  if (stored === "light" || stored === "dark") setTheme(stored, false);

  var themeToggle = document.getElementById("theme-toggle");
  if (themeToggle) {
    themeToggle.addEventListener("click", function() {
      setTheme(html.getAttribute("data-theme") === "dark" ? "light" : "dark", true);
    });
  }

  // ===== Local engine (static hosting) =====
  function formatSize(bytes) {
    if (!bytes) return "0 B";
    var units = ["B", "KB", "MB", "GB"], i = 0, v = bytes;
    while (v >= 1024 && i < units.length - 1) { v /= 1024; i++; }
    return parseFloat(v.toFixed(1)) + " " + units[i];
  }

  function lastSegment(p) {
    var name = p.split("/").pop();
    try { return decodeURIComponent(name); } catch (e) { return name; }
  }

  function localEngine(emit) {
    var s = { state: "closed", token: 0, entry: null, scale: 1, tx: 0, ty: 0,
              natural: null, meta: null, error: "", dragging: false, sx: 0, sy: 0 };

    function clamp(v) { return Math.min(MAX_SCALE, Math.max(MIN_SCALE, v)); }

    function snapshot() {
      var snap = {
        state: s.state, token: s.token, entry: s.entry,
        css: "scale(" + s.scale + ") translate(" + s.tx + "px, " + s.ty + "px)",
        zoom_label: Math.round(s.scale * 100) + "%",
        size_label: "", dimensions: "--- × ---", download_name: "",
        scroll_locked: s.state === "open" || s.state === "failed",
        dragging: s.dragging, error: s.error
      };
      if (s.entry) {
        snap.download_name = lastSegment(s.entry.path);
        snap.size_label = !s.meta ? "loading" : (s.meta.known ? formatSize(s.meta.bytes) : "unknown size");
        if (s.natural) snap.dimensions = s.natural.w + " × " + s.natural.h;
      }
      return snap;
    }

    function wheelScale(deltaY, c) {
      var proposed = clamp(s.scale - deltaY * WHEEL_FACTOR);
      if (!s.natural || !c.width || !c.height || proposed <= 1) return proposed;
      var imgRatio = s.natural.w / s.natural.h, boxRatio = c.width / c.height;
      if (imgRatio > boxRatio) return Math.min(proposed, c.width / s.natural.w);
      if (imgRatio < boxRatio) return Math.min(proposed, c.height / s.natural.h);
      return proposed;
    }

    function startDrag(p) {
      if (s.state !== "open") return;
      s.dragging = true; s.sx = p.x - s.tx; s.sy = p.y - s.ty;
    }

    function moveDrag(p) {
      if (!s.dragging || s.state !== "open") return;
      s.tx = p.x - s.sx; s.ty = p.y - s.sy;
    }

    var handlers = {
      open: function(m) {
        s.token++; s.state = "loading"; s.entry = { path: m.path, title: m.title };
        s.scale = 1; s.tx = 0; s.ty = 0; s.natural = null; s.meta = null; s.error = ""; s.dragging = false;
        var tok = s.token;
        fetch(m.path, { method: "HEAD" }).then(function(r) {
          var len = r.headers.get("content-length");
          return r.ok && len !== null ? { known: true, bytes: parseInt(len, 10) } : { known: false };
        }).catch(function() { return { known: false }; }).then(function(md) {
          if (tok === s.token && (s.state === "loading" || s.state === "open")) { s.meta = md; emit(snapshot()); }
        });
      },
      loaded: function(m) {
        if (m.token !== s.token || s.state !== "loading") return;
        s.state = "open"; s.natural = { w: m.width, h: m.height };
      },
      load_failed: function(m) {
        if (m.token !== s.token || s.state !== "loading") return;
        s.state = "failed";
        s.error = "Unable to load image " + s.entry.path + ". Check that the image path is correct.";
      },
      close: function() { s.token++; s.state = "closed"; s.entry = null; s.error = ""; s.dragging = false; },
      dismiss: function() { if (s.state === "failed") handlers.close(); },
      zoom_in: function() { if (s.state === "open") s.scale = clamp(s.scale + SCALE_STEP); },
      zoom_out: function() { if (s.state === "open") s.scale = clamp(s.scale - SCALE_STEP); },
      reset: function() { if (s.state === "open") { s.scale = 1; s.tx = 0; s.ty = 0; s.dragging = false; } },
      wheel: function(m) { if (s.state === "open") s.scale = wheelScale(m.delta_y, m.container); },
      pointer_down: function(m) { if (m.button === 0) startDrag(m); },
      pointer_move: function(m) { moveDrag(m); },
      pointer_up: function() { s.dragging = false; },
      touch_start: function(m) { if (m.touches.length === 1) startDrag(m.touches[0]); else s.dragging = false; },
      touch_move: function(m) { if (m.touches.length === 1) moveDrag(m.touches[0]); else s.dragging = false; },
      touch_end: function() { s.dragging = false; }
    };

    return {
      send: function(m) {
        var h = handlers[m.type];
        if (h) h(m);
        emit(snapshot());
      }
    };
  }

  // ===== Live engine (served by photowall) =====
  function liveEngine(url, emit) {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var queue = [], ready = false, fallback = null;
    var ws = new WebSocket(proto + "//" + location.host + url);

    ws.onopen = function() {
      ready = true;
      queue.forEach(function(m) { ws.send(JSON.stringify(m)); });
      queue = [];
    };
    ws.onmessage = function(e) {
      var msg = JSON.parse(e.data);
      if (msg.type === "state") emit(msg.state);
      else if (msg.type === "error") console.warn("viewer:", msg.error);
    };
    ws.onclose = function() {
      if (fallback) return;
      fallback = localEngine(emit);
      queue.forEach(function(m) { fallback.send(m); });
      queue = [];
    };

    return {
      send: function(m) {
        if (fallback) fallback.send(m);
        else if (ready) ws.send(JSON.stringify(m));
        else queue.push(m);
      }
    };
  }

  // ===== Lightbox =====
  function createViewer() {
    var el = {
      lightbox: document.getElementById("lightbox"),
      stage: document.getElementById("lightbox-stage"),
      image: document.getElementById("lightbox-image"),
      title: document.getElementById("lightbox-title"),
      zoom: document.getElementById("zoom-level"),
      size: document.getElementById("image-size"),
      dims: document.getElementById("image-dimensions"),
      error: document.getElementById("lightbox-error"),
      errorText: document.getElementById("lightbox-error-text")
    };
    if (!el.lightbox || !el.image) return null;

    var current = { state: "closed", token: 0, download_name: "" };
    var loadingToken = 0;
    var dragging = false;
    var engine = liveURL ? liveEngine(liveURL, render) : localEngine(render);

    function send(m) { engine.send(m); }

    function render(snap) {
      current = snap;
      var visible = snap.state === "open" || snap.state === "failed";
      el.lightbox.classList.toggle("show", visible);
      el.lightbox.setAttribute("aria-hidden", visible ? "false" : "true");
      body.classList.toggle("scroll-locked", !!snap.scroll_locked);
      el.image.style.transform = snap.css;
      if (snap.dragging) el.image.setAttribute("data-dragging", "true");
      else el.image.removeAttribute("data-dragging");
      if (el.zoom) el.zoom.textContent = snap.zoom_label;
      if (el.size) el.size.textContent = snap.size_label === "loading" ? "loading..." : (snap.size_label || "");
      if (el.dims) el.dims.textContent = snap.dimensions;
      if (el.title) el.title.textContent = snap.entry ? (snap.entry.title || "Untitled") : "";
      if (el.error) el.error.hidden = snap.state !== "failed";
      if (el.errorText) el.errorText.textContent = snap.error || "";

      if (snap.state === "loading" && snap.token !== loadingToken) {
        var tok = loadingToken = snap.token;
        el.image.onload = function() {
          send({ type: "loaded", token: tok, width: el.image.naturalWidth, height: el.image.naturalHeight });
        };
        el.image.onerror = function() { send({ type: "load_failed", token: tok }); };
        el.image.alt = snap.entry.title || "";
        el.image.src = snap.entry.path;
      }
    }

    function bind(id, type) {
      var b = document.getElementById(id);
      if (b) b.addEventListener("click", function() { send({ type: type }); });
    }
    bind("close", "close");
    bind("reset", "reset");
    bind("zoom-in", "zoom_in");
    bind("zoom-out", "zoom_out");
    bind("dismiss", "dismiss");

    var downloadBtn = document.getElementById("download");
    if (downloadBtn) {
      downloadBtn.addEventListener("click", function() {
        if (current.state !== "open") return;
        var link = document.createElement("a");
        link.href = el.image.src;
        link.download = current.download_name;
        body.appendChild(link);
        link.click();
        body.removeChild(link);
      });
    }

    el.lightbox.addEventListener("click", function(e) {
      if (e.target === el.lightbox || e.target === el.stage) send({ type: "close" });
    });

    document.addEventListener("keydown", function(e) {
      if (e.key !== "Escape") return;
      if (current.state === "failed") send({ type: "dismiss" });
      else if (current.state !== "closed") send({ type: "close" });
    });

    el.image.addEventListener("wheel", function(e) {
      e.preventDefault();
      send({ type: "wheel", delta_y: e.deltaY,
             container: { width: el.stage.clientWidth, height: el.stage.clientHeight } });
    }, { passive: false });

    el.image.addEventListener("mousedown", function(e) {
      if (e.button !== 0) return;
      dragging = true;
      send({ type: "pointer_down", button: e.button, x: e.clientX, y: e.clientY });
      e.preventDefault();
    });
    document.addEventListener("mousemove", function(e) {
      if (dragging) send({ type: "pointer_move", x: e.clientX, y: e.clientY });
    });
    document.addEventListener("mouseup", function() {
      if (!dragging) return;
      dragging = false;
      send({ type: "pointer_up" });
    });

    function points(list) {
      var out = [];
      for (var i = 0; i < list.length; i++) out.push({ x: list[i].clientX, y: list[i].clientY });
      return out;
    }
    el.image.addEventListener("touchstart", function(e) {
      send({ type: "touch_start", touches: points(e.touches) });
    }, { passive: true });
    el.image.addEventListener("touchmove", function(e) {
      e.preventDefault();
      send({ type: "touch_move", touches: points(e.touches) });
    }, { passive: false });
    el.image.addEventListener("touchend", function() { send({ type: "touch_end" }); });

    return {
      open: function(path, title) { send({ type: "open", path: path, title: title }); }
    };
  }

  // ===== Grid =====
  function bindCard(card, open) {
    var img = card.querySelector("img");
    function markBroken() {
      card.classList.add("broken");
      card.title = "Failed to load " + card.getAttribute("data-src");
    }
    if (img) {
      img.addEventListener("error", markBroken);
      if (img.complete && img.naturalWidth === 0 && img.getAttribute("src")) markBroken();
    }
    function activate() {
      if (!card.classList.contains("broken")) open(card.getAttribute("data-src"), card.getAttribute("data-title"));
    }
    card.addEventListener("click", activate);
    card.addEventListener("keydown", function(e) { if (e.key === "Enter") activate(); });
  }

  function bindGrid(grid, open) {
    grid.querySelectorAll(".card").forEach(function(card) { bindCard(card, open); });
  }

  // ===== Static discovery =====
  // Mirrors the manifest strategy of the Go resolver for pages served by a
  // plain static host.
  var FETCH_TIMEOUT = 8000;
  var IMAGE_EXT = /\.(jpe?g|png|webp|gif|bmp|svg|tiff?|heic|avif)$/i;

  var MESSAGES = {
    not_found: "The image manifest (images.json) was not found.",
    malformed: "The image list is malformed; it must be a JSON array of paths.",
    empty: "No valid image paths were found.",
    timeout: "Loading the image list timed out.",
    fetch_failed: "Unable to load the image list."
  };

  var REMEDIATION = {
    not_found: [
      "Check that the manifest build step ran (photowall manifest).",
      "Check that the site is published from the directory containing images.json.",
      "Check that images.json sits next to index.html."
    ],
    malformed: ["Regenerate the manifest and make sure it is a JSON array of strings."],
    empty: [
      "Check that the images directory contains supported formats.",
      "Check that the manifest step scanned the images directory."
    ],
    timeout: ["Check your network connection and retry."],
    fetch_failed: ["Retry in a moment; the host may be temporarily unavailable."]
  };

  function normalizePath(raw, base) {
    var p = raw.trim();
    if (p.charAt(0) !== "/") p = base + "/" + p;
    return p.replace(/\/+/g, "/");
  }

  function titleFromPath(p) {
    var name = lastSegment(p), dot = name.lastIndexOf(".");
    return dot > 0 ? name.slice(0, dot) : name;
  }

  function buildCatalog(raw, base) {
    var out = [];
    raw.forEach(function(r) {
      if (typeof r !== "string" || !r.trim()) return;
      var p = normalizePath(r, base);
      if (IMAGE_EXT.test(p)) out.push({ path: p, title: titleFromPath(p) });
    });
    return out;
  }

  function discoveryError(kind, url, detail, status) {
    return { kind: kind, url: url, detail: detail || "", status: status || 0 };
  }

  function errorMessage(err) {
    if (err.kind === "malformed" && err.detail) return "The image list is malformed: " + err.detail;
    if (err.kind === "fetch_failed" && err.status) return "Unable to load the image list (HTTP " + err.status + ").";
    return MESSAGES[err.kind] || MESSAGES.fetch_failed;
  }

  function fetchManifest(url, base) {
    var ctrl = typeof AbortController === "function" ? new AbortController() : null;
    var timer;
    var timeout = new Promise(function(resolve, reject) {
      timer = setTimeout(function() {
        reject(discoveryError("timeout", url));
        if (ctrl) ctrl.abort();
      }, FETCH_TIMEOUT);
    });
    var request = fetch(url, { headers: { Accept: "application/json" }, signal: ctrl ? ctrl.signal : undefined })
      .then(function(r) {
        if (r.status === 404) throw discoveryError("not_found", url, "", 404);
        if (!r.ok) throw discoveryError("fetch_failed", url, "", r.status);
        return r.text();
      }, function(e) {
        throw discoveryError("fetch_failed", url, e && e.message);
      })
      .then(function(text) {
        var data;
        try { data = JSON.parse(text); } catch (e) { throw discoveryError("malformed", url, e.message); }
        if (!Array.isArray(data)) throw discoveryError("malformed", url, "manifest root is not an array");
        var catalog = buildCatalog(data, base);
        if (!catalog.length) throw discoveryError("empty", url);
        return catalog;
      });
    return Promise.race([request, timeout]).then(function(catalog) {
      clearTimeout(timer);
      return catalog;
    }, function(err) {
      clearTimeout(timer);
      throw err;
    });
  }

  function el(tag, attrs, text) {
    var node = document.createElement(tag);
    Object.keys(attrs || {}).forEach(function(k) { node.setAttribute(k, attrs[k]); });
    if (text !== undefined) node.textContent = text;
    return node;
  }

  function staticGallery(grid, summary, open) {
    var manifestURL = body.getAttribute("data-manifest");
    var base = body.getAttribute("data-base") || "/";
    var generation = 0;

    function showCatalog(catalog) {
      grid.textContent = "";
      grid.setAttribute("data-strategy", "manifest");
      catalog.forEach(function(entry) {
        var card = el("figure", { "class": "card", "data-src": entry.path, "data-title": entry.title, tabindex: "0" });
        card.appendChild(el("img", { src: entry.path, alt: entry.title, loading: "lazy", decoding: "async" }));
        card.appendChild(el("figcaption", {}, entry.title));
        grid.appendChild(card);
        bindCard(card, open);
      });
      if (summary) {
        summary.textContent = "Found " + catalog.length + " image" + (catalog.length === 1 ? "" : "s") +
          ". Click an image to view full size.";
        summary.hidden = false;
      }
    }

    function showError(err) {
      grid.textContent = "";
      if (summary) summary.hidden = true;
      var section = el("section", { "class": "discovery-error", id: "discovery-error", "data-kind": err.kind });
      section.appendChild(el("h2", {}, "Unable to load the gallery"));
      section.appendChild(el("p", { "class": "error-message" }, errorMessage(err)));
      var steps = REMEDIATION[err.kind] || REMEDIATION.fetch_failed;
      var list = el("ul", { "class": "remediation" });
      steps.forEach(function(step) { list.appendChild(el("li", {}, step)); });
      section.appendChild(list);
      var actions = el("div", { "class": "error-actions" });
      actions.appendChild(el("a", { "class": "button", id: "retry", href: "?t=" + Date.now() }, "Retry"));
      actions.appendChild(el("a", { "class": "button", href: manifestURL, target: "_blank", rel: "noopener" }, "Open raw manifest"));
      section.appendChild(actions);
      var debug = el("details", { "class": "debug" });
      debug.appendChild(el("summary", {}, "Debug info"));
      var dl = el("dl");
      [["Request URL", err.url || manifestURL], ["Base path", base]].forEach(function(row) {
        dl.appendChild(el("dt", {}, row[0]));
        dl.appendChild(el("dd", {}, row[1]));
      });
      debug.appendChild(dl);
      section.appendChild(debug);
      grid.appendChild(section);
    }

    function run(cacheBust) {
      var gen = ++generation;
      var url = manifestURL + (cacheBust ? "?t=" + encodeURIComponent(cacheBust) : "");
      fetchManifest(url, base).then(function(catalog) {
        if (gen === generation) showCatalog(catalog);
      }, function(err) {
        if (gen !== generation) return;
        if (!err || !err.kind) err = discoveryError("fetch_failed", url, err && err.message);
        showError(err);
      });
    }

    document.addEventListener("click", function(e) {
      var target = e.target.closest ? e.target.closest("#refresh, #retry") : null;
      if (!target) return;
      e.preventDefault();
      run(String(Date.now()));
    });

    run("");
  }

  var grid = document.getElementById("gallery");
  if (!grid) {
    console.error("photowall: gallery container #gallery not found");
    return;
  }
  var viewer = createViewer();
  if (!viewer) {
    console.error("photowall: lightbox markup not found");
    return;
  }
  bindGrid(grid, viewer.open);
  if (!liveURL && body.getAttribute("data-manifest")) {
    staticGallery(grid, document.getElementById("summary"), viewer.open);
  }
})();
`

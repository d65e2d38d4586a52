package figures

// linkedFiguresJS is the client-side wiring for the linked panels. The
// placeholders __COMPONENT_DATA__, __PANEL_CONFIG__ and __DEFAULT_IMAGE__ are
// substituted at emission time.
//
// The script preserves the generation-side contract: one shared data array,
// a synchronous selection bus with last-write-wins semantics and no
// debouncing, and no network round trips.
const linkedFiguresJS = `(function () {
  'use strict';

  var componentData = __COMPONENT_DATA__;
  var panelConfig = __PANEL_CONFIG__;
  var defaultImage = __DEFAULT_IMAGE__;

  var SVG_NS = 'http://www.w3.org/2000/svg';
  var WIDTH = 320, HEIGHT = 240, PAD = 32;

  // Selection bus: every panel and the detail view observe the same selected
  // index set. Dispatch is synchronous in subscription order; a publish fully
  // replaces the previous selection (last write wins).
  var selectionBus = {
    handlers: [],
    subscribe: function (panelId, handler) {
      this.handlers.push({ panelId: panelId, handler: handler });
    },
    publish: function (indices) {
      for (var i = 0; i < this.handlers.length; i++) {
        this.handlers[i].handler(indices.slice());
      }
    }
  };

  function el(name, attrs) {
    var node = document.createElementNS(SVG_NS, name);
    for (var key in attrs) {
      node.setAttribute(key, attrs[key]);
    }
    return node;
  }

  function extent(values) {
    var min = Math.min.apply(null, values);
    var max = Math.max.apply(null, values);
    if (min === max) { max = min + 1; }
    return [min, max];
  }

  function scale(domain, range) {
    var d = domain[1] - domain[0];
    return function (v) {
      return range[0] + ((v - domain[0]) / d) * (range[1] - range[0]);
    };
  }

  function axisLabels(svg, cfg) {
    if (cfg.xLabel) {
      var x = el('text', { x: WIDTH / 2, y: HEIGHT - 6, 'text-anchor': 'middle', 'class': 'axis-label' });
      x.textContent = cfg.xLabel;
      svg.appendChild(x);
    }
    if (cfg.yLabel) {
      var y = el('text', {
        x: 10, y: HEIGHT / 2, 'text-anchor': 'middle', 'class': 'axis-label',
        transform: 'rotate(-90 10 ' + (HEIGHT / 2) + ')'
      });
      y.textContent = cfg.yLabel;
      svg.appendChild(y);
    }
  }

  function thresholdLines(svg, cfg, yScale) {
    var lines = cfg.thresholds || [];
    for (var i = 0; i < lines.length; i++) {
      var y = yScale(lines[i].value);
      svg.appendChild(el('line', {
        x1: PAD, x2: WIDTH - PAD, y1: y, y2: y,
        'class': 'threshold-line', stroke: '#34495e', 'stroke-dasharray': '6 3'
      }));
      var label = el('text', { x: WIDTH - PAD, y: y - 4, 'text-anchor': 'end', 'class': 'threshold-label' });
      label.textContent = lines[i].label;
      svg.appendChild(label);
    }
  }

  function markSelectable(node, index) {
    node.setAttribute('data-index', index);
    node.addEventListener('click', function () {
      selectionBus.publish([index]);
    });
  }

  function renderScatter(svg, cfg) {
    var xs = componentData.map(function (d) { return d[cfg.xField]; });
    var ys = componentData.map(function (d) { return d[cfg.yField]; });
    var xScale = scale(extent(xs), [PAD, WIDTH - PAD]);
    var yScale = scale(extent(ys), [HEIGHT - PAD, PAD]);

    thresholdLines(svg, cfg, yScale);
    componentData.forEach(function (d) {
      var dot = el('circle', {
        cx: xScale(d[cfg.xField]), cy: yScale(d[cfg.yField]), r: 5,
        fill: d.color, 'class': 'mark'
      });
      markSelectable(dot, d.index);
      svg.appendChild(dot);
    });
    axisLabels(svg, cfg);
  }

  function renderSorted(svg, cfg) {
    var ordered = componentData.slice().sort(function (a, b) {
      return a[cfg.xField] - b[cfg.xField];
    });
    var ys = ordered.map(function (d) { return d[cfg.yField]; });
    var xScale = scale([1, ordered.length], [PAD, WIDTH - PAD]);
    var yScale = scale(extent(ys), [HEIGHT - PAD, PAD]);

    var points = ordered.map(function (d) {
      return xScale(d[cfg.xField]) + ',' + yScale(d[cfg.yField]);
    }).join(' ');
    svg.appendChild(el('polyline', {
      points: points, fill: 'none', stroke: '#2c3e50', 'class': 'sorted-line'
    }));

    thresholdLines(svg, cfg, yScale);
    ordered.forEach(function (d) {
      var dot = el('circle', {
        cx: xScale(d[cfg.xField]), cy: yScale(d[cfg.yField]), r: 4,
        fill: d.color, 'class': 'mark'
      });
      markSelectable(dot, d.index);
      svg.appendChild(dot);
    });
    axisLabels(svg, cfg);
  }

  function renderPie(svg, cfg) {
    var total = componentData.reduce(function (sum, d) { return sum + d[cfg.yField]; }, 0);
    if (total <= 0) { return; }
    var cx = WIDTH / 2, cy = HEIGHT / 2, r = Math.min(WIDTH, HEIGHT) / 2 - 16;
    var angle = -Math.PI / 2;

    componentData.forEach(function (d) {
      var span = (d[cfg.yField] / total) * 2 * Math.PI;
      var x1 = cx + r * Math.cos(angle), y1 = cy + r * Math.sin(angle);
      var x2 = cx + r * Math.cos(angle + span), y2 = cy + r * Math.sin(angle + span);
      var large = span > Math.PI ? 1 : 0;
      var path = el('path', {
        d: 'M' + cx + ',' + cy + ' L' + x1 + ',' + y1 +
          ' A' + r + ',' + r + ' 0 ' + large + ' 1 ' + x2 + ',' + y2 + ' Z',
        fill: d.color, stroke: '#fff', 'stroke-width': 1, 'class': 'mark'
      });
      markSelectable(path, d.index);
      svg.appendChild(path);
      angle += span;
    });
  }

  var renderers = { scatter: renderScatter, sorted: renderSorted, pie: renderPie };

  function applyHighlight(svg, indices) {
    var selected = {};
    for (var i = 0; i < indices.length; i++) { selected[indices[i]] = true; }
    var marks = svg.querySelectorAll('.mark');
    for (var j = 0; j < marks.length; j++) {
      var idx = Number(marks[j].getAttribute('data-index'));
      if (indices.length === 0) {
        marks[j].setAttribute('opacity', '1');
      } else {
        marks[j].setAttribute('opacity', selected[idx] ? '1' : '0.25');
      }
    }
  }

  panelConfig.forEach(function (cfg) {
    var svg = document.querySelector('svg[data-panel="' + cfg.id + '"]');
    if (!svg) { return; }
    var render = renderers[cfg.kind];
    if (render) { render(svg, cfg); }
    selectionBus.subscribe(cfg.id, function (indices) {
      applyHighlight(svg, indices);
    });
  });

  selectionBus.subscribe('detail', function (indices) {
    var img = document.getElementById('detail-image');
    if (!img) { return; }
    if (indices.length === 0) {
      img.src = defaultImage;
      return;
    }
    var row = componentData[indices[0]];
    img.src = row ? row.imagePath : defaultImage;
  });

  // Clicking outside any mark clears the selection.
  var container = document.getElementById('linked-figures');
  if (container) {
    container.addEventListener('click', function (event) {
      if (event.target.classList && event.target.classList.contains('mark')) { return; }
      selectionBus.publish([]);
    });
  }
})();
`

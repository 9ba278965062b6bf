package markup

// tmplClient applies patches from the view engine to the DOM and forwards
// user input back over the session socket.
//
// Server messages: {"type":"render","data":P} clears the canvas first,
// {"type":"patch","data":P} applies P, {"type":"error","message":M} logs.
// Client messages: {"type":"event","event":E}.
const tmplClient = `(function() {
  var cfg = {{.Config}};
  var uid = cfg.id, ns = 'http://www.w3.org/2000/svg';
  var svgEl = document.getElementById(uid + '-svg');
  var scrollEl = document.getElementById(uid + '-scroll');
  var ddEl = document.getElementById(uid + '-dd');
  var groups = {}, nodes = {}, items = {};
  var socket = null, lastHover = '', scrollSeq = -1;

  svgEl.querySelectorAll('g[data-group]').forEach(function(g) {
    groups[g.getAttribute('data-group')] = g;
  });

  function byKey(key) { return document.getElementById(uid + '-' + key); }

  function send(ev) {
    if (socket && socket.readyState === 1) {
      socket.send(JSON.stringify({type: 'event', event: ev}));
    }
  }

  function tooltipNode() {
    var g = document.createElementNS(ns, 'g');
    var r = document.createElementNS(ns, 'rect');
    r.setAttribute('class', uid + '-tt');
    r.setAttribute('rx', 4); r.setAttribute('ry', 4);
    r.setAttribute('fill', '#ffffdd'); r.setAttribute('stroke', '#999');
    r.setAttribute('stroke-width', 0.8);
    var t1 = document.createElementNS(ns, 'text');
    t1.setAttribute('class', uid + '-tt');
    t1.setAttribute('font-size', '11'); t1.setAttribute('fill', '#333');
    var t2 = document.createElementNS(ns, 'text');
    t2.setAttribute('class', uid + '-tt');
    t2.setAttribute('font-size', '10'); t2.setAttribute('fill', '#888');
    g.appendChild(r); g.appendChild(t1); g.appendChild(t2);
    return g;
  }

  function paintTooltip(g, el) {
    var a = el.attrs || {}, r = g.childNodes[0], t1 = g.childNodes[1], t2 = g.childNodes[2];
    var y = parseFloat(a.y), two = a.line2 !== undefined;
    t1.setAttribute('x', a.x); t1.setAttribute('y', y);
    t1.setAttribute('text-anchor', a['text-anchor']);
    t1.textContent = el.text || '';
    if (two) {
      t2.setAttribute('x', a.x); t2.setAttribute('y', y + 13);
      t2.setAttribute('text-anchor', a['text-anchor']);
      t2.textContent = a.line2;
      t2.setAttribute('visibility', 'visible');
    } else {
      t2.setAttribute('visibility', 'hidden');
    }
    var b1 = t1.getBBox(), bx = b1.x, by = b1.y, bw = b1.width, bh = b1.height;
    if (two) {
      var b2 = t2.getBBox();
      bx = Math.min(bx, b2.x); by = Math.min(by, b2.y);
      bw = Math.max(b1.x + b1.width, b2.x + b2.width) - bx;
      bh = (b2.y + b2.height) - by;
    }
    r.setAttribute('x', bx - 5); r.setAttribute('y', by - 3);
    r.setAttribute('width', bw + 10); r.setAttribute('height', bh + 6);
  }

  function paintShape(n, el) {
    for (var i = n.attributes.length - 1; i >= 0; i--) {
      if (n.attributes[i].name !== 'id') n.removeAttribute(n.attributes[i].name);
    }
    var a = el.attrs || {};
    Object.keys(a).forEach(function(k) {
      n.setAttribute(k, k === 'class' ? uid + '-' + a[k] : a[k]);
    });
    n.textContent = el.text || '';
  }

  function applyShape(op) {
    var g = groups[op.group];
    if (!g) return;
    var n = nodes[op.key];
    if (op.op === 'remove') {
      if (n) { n.remove(); delete nodes[op.key]; }
      return;
    }
    if (!n) {
      n = op.el.tag === 'tooltip' ? tooltipNode() : document.createElementNS(ns, op.el.tag);
      n.id = uid + '-' + op.key;
      nodes[op.key] = n;
      g.appendChild(n);
    }
    if (op.el.tag === 'tooltip') paintTooltip(n, op.el); else paintShape(n, op.el);
  }

  function applyControl(el) {
    var a = el.attrs || {};
    if (el.tag === 'scroll') {
      var seq = parseInt(a.seq, 10);
      if (seq !== scrollSeq) { scrollSeq = seq; scrollEl.scrollTop = parseFloat(a.top); }
      return;
    }
    var n = byKey(el.key);
    if (!n) return;
    if (el.tag === 'input') {
      if (a.min !== undefined) n.min = a.min;
      if (a.max !== undefined) n.max = a.max;
      // The server echoes the query; overwriting a focused field would
      // drop keystrokes typed since the event was sent.
      if (n.value !== a.value && !(el.key === 'ctl-search' && document.activeElement === n)) n.value = a.value;
      return;
    }
    if (a.display !== undefined) n.style.display = a.display;
    if (el.key !== 'ctl-search-clear') n.textContent = el.text || '';
  }

  function applyDropdown(op) {
    if (op.key === 'dd') {
      if (op.el) ddEl.style.display = op.el.attrs.display;
      return;
    }
    var n = items[op.key];
    if (op.op === 'remove') {
      if (n) { n.remove(); delete items[op.key]; }
      return;
    }
    if (!n) {
      n = document.createElement('div');
      n.style.cssText = 'padding:3px 8px; font-size:11px; font-family:monospace; cursor:pointer; border-bottom:1px solid #eee;';
      items[op.key] = n;
      ddEl.appendChild(n);
    }
    var a = op.el.attrs;
    n.setAttribute('data-pos', a['data-pos']);
    n.style.background = a.active === 'true' ? '#e8f0fe' : '';
    n.textContent = '';
    var b = document.createElement('b');
    b.textContent = op.el.text;
    n.appendChild(b);
    if (a.name && a.name !== op.el.text) {
      var s = document.createElement('span');
      s.style.color = '#888'; s.style.marginLeft = '6px';
      s.textContent = a.name;
      n.appendChild(s);
    }
  }

  function apply(p) {
    (p.ops || []).forEach(function(op) {
      if (op.group === 'controls') { if (op.el) applyControl(op.el); return; }
      if (op.group === 'dropdown') { applyDropdown(op); return; }
      applyShape(op);
    });
  }

  function reset() {
    Object.keys(groups).forEach(function(k) {
      while (groups[k].firstChild) groups[k].removeChild(groups[k].firstChild);
    });
    Object.keys(items).forEach(function(k) { items[k].remove(); });
    nodes = {}; items = {}; scrollSeq = -1;
  }

  function intValue(ev) { return parseInt(ev.target.value, 10); }

  byKey('ctl-batch').addEventListener('input', function(ev) {
    send({kind: 'batch_changed', value: intValue(ev)});
  });
  for (var l = 0; l < cfg.layers; l++) {
    (function(l) {
      byKey('ctl-head-' + l).addEventListener('input', function(ev) {
        send({kind: 'head_changed', layer: l, value: intValue(ev)});
      });
      byKey('ctl-thresh-' + l).addEventListener('input', function(ev) {
        send({kind: 'threshold_changed', layer: l, value: intValue(ev)});
      });
    })(l);
  }

  svgEl.addEventListener('click', function(ev) {
    var d = ev.target.dataset || {};
    if (d.nbar !== undefined) {
      send({kind: 'name_bar_clicked', row: parseInt(d.nbar, 10)});
    } else if (d.col !== undefined) {
      send({kind: 'node_clicked', column: parseInt(d.col, 10), row: parseInt(d.idx, 10)});
    }
  });
  svgEl.addEventListener('mousemove', function(ev) {
    var d = ev.target.dataset || {}, key = '', msg = {kind: 'pointer_left'};
    if (d.nbar !== undefined) {
      key = 'name:' + d.nbar;
      msg = {kind: 'row_hovered', target: 'name', row: parseInt(d.nbar, 10)};
    } else if (d.col !== undefined) {
      key = 'node:' + d.col + ':' + d.idx;
      msg = {kind: 'row_hovered', target: 'node', column: parseInt(d.col, 10), row: parseInt(d.idx, 10)};
    }
    if (key !== lastHover) { lastHover = key; send(msg); }
  });
  svgEl.addEventListener('mouseleave', function() {
    if (lastHover !== '') { lastHover = ''; send({kind: 'pointer_left'}); }
  });

  var search = byKey('ctl-search');
  search.addEventListener('input', function() {
    send({kind: 'search_query_changed', text: search.value});
  });
  search.addEventListener('keydown', function(ev) {
    if (['ArrowDown', 'ArrowUp', 'Enter', 'Escape'].indexOf(ev.key) < 0) return;
    ev.preventDefault();
    send({kind: 'search_key', key: ev.key});
  });
  search.addEventListener('focus', function() { send({kind: 'search_focused'}); });
  search.addEventListener('blur', function() {
    setTimeout(function() { send({kind: 'search_blurred'}); }, 150);
  });
  byKey('ctl-search-clear').addEventListener('click', function() {
    search.value = '';
    send({kind: 'search_cleared'});
    search.focus();
  });
  ddEl.addEventListener('mousedown', function(ev) {
    var n = ev.target.closest('[data-pos]');
    if (!n) return;
    ev.preventDefault();
    send({kind: 'search_result_chosen', index: parseInt(n.getAttribute('data-pos'), 10)});
  });
  window.addEventListener('resize', function() {
    send({kind: 'viewport_resized', height: scrollEl.clientHeight});
  });

  apply(cfg.boot);

  if (cfg.ws) {
    socket = new WebSocket(cfg.ws);
    socket.onopen = function() {
      send({kind: 'viewport_resized', height: scrollEl.clientHeight});
    };
    socket.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === 'render') { reset(); apply(msg.data); }
      else if (msg.type === 'patch') { apply(msg.data); }
      else if (msg.type === 'error') { console.warn('[view] ' + msg.message); }
    };
  } else {
    document.querySelectorAll('#' + uid + '-wrapper input').forEach(function(n) { n.disabled = true; });
  }
})();`

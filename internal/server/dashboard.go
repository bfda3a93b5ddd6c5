package server

// DashboardHTML is the embedded single-page capture monitor.
// It connects via WebSocket and lists captured i8042 events as they are
// written to the log.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>ps2emu capture monitor</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .status-bar {
    display: flex; gap: 20px; margin-bottom: 20px; padding: 12px 16px;
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
  }
  .status-item { display: flex; flex-direction: column; }
  .status-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  .status-value { font-size: 1.1em; font-weight: 600; }
  .status-value.connected { color: #3fb950; }
  .status-value.disconnected { color: #f85149; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 2em; font-weight: 700; color: #58a6ff; }
  .stat-number.device { color: #3fb950; }
  .stat-number.host { color: #d2a8ff; }
  .stat-label { font-size: 0.8em; color: #8b949e; margin-top: 4px; }
  .event-log {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    max-height: 500px; overflow-y: auto;
  }
  .event-header {
    padding: 12px 16px; border-bottom: 1px solid #30363d;
    font-weight: 600; color: #58a6ff; position: sticky; top: 0;
    background: #161b22; display: flex; justify-content: space-between;
  }
  .event-row {
    display: grid; grid-template-columns: 90px 140px 60px 60px 100px 1fr;
    padding: 6px 16px; border-bottom: 1px solid #21262d;
    font-size: 0.85em; align-items: center;
  }
  .event-row:hover { background: #1c2128; }
  .dir-R { color: #3fb950; }
  .dir-S { color: #d2a8ff; }
  .comment { color: #8b949e; }
  .empty { padding: 40px; text-align: center; color: #484f58; }
  button {
    background: #21262d; color: #c9d1d9; border: 1px solid #30363d;
    border-radius: 6px; padding: 2px 10px; cursor: pointer;
  }
</style>
</head>
<body>
<h1>ps2emu</h1>
<div class="subtitle">Live i8042 capture</div>

<div class="status-bar">
  <div class="status-item">
    <span class="status-label">Stream</span>
    <span class="status-value disconnected" id="conn">disconnected</span>
  </div>
  <div class="status-item">
    <span class="status-label">Session</span>
    <span class="status-value" id="session">-</span>
  </div>
  <div class="status-item">
    <span class="status-label">Section</span>
    <span class="status-value" id="section">-</span>
  </div>
</div>

<div class="stats">
  <div class="stat-card"><div class="stat-number" id="total">0</div><div class="stat-label">Events</div></div>
  <div class="stat-card"><div class="stat-number device" id="received">0</div><div class="stat-label">From device (R)</div></div>
  <div class="stat-card"><div class="stat-number host" id="sent">0</div><div class="stat-label">From host (S)</div></div>
</div>

<div class="event-log">
  <div class="event-header"><span>Events</span><button onclick="clearEvents()">Clear</button></div>
  <div id="events"><div class="empty">Waiting for events...</div></div>
</div>

<script>
const maxRows = 500;
let total = 0, received = 0, sent = 0;

function el(id) { return document.getElementById(id); }

function clearEvents() {
  el('events').innerHTML = '<div class="empty">Waiting for events...</div>';
  total = received = sent = 0;
  render();
}

function render() {
  el('total').textContent = total;
  el('received').textContent = received;
  el('sent').textContent = sent;
}

function addEvent(ev) {
  const list = el('events');
  if (total === 0) list.innerHTML = '';
  total++;
  if (ev.direction === 'R') received++; else sent++;
  el('session').textContent = ev.session.slice(0, 8);
  el('section').textContent = ev.section;

  const row = document.createElement('div');
  row.className = 'event-row';
  const cols = [
    ev.section,
    (ev.time / 1e6).toFixed(6) + 's',
    ev.direction,
    ev.data,
    ev.origin,
    ev.comment || '',
  ];
  cols.forEach((text, i) => {
    const cell = document.createElement('span');
    cell.textContent = text;
    if (i === 2) cell.className = 'dir-' + ev.direction;
    if (i === 5) cell.className = 'comment';
    row.appendChild(cell);
  });
  list.prepend(row);
  while (list.children.length > maxRows) list.removeChild(list.lastChild);
  render();
}

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  ws.onopen = () => { el('conn').textContent = 'connected'; el('conn').className = 'status-value connected'; };
  ws.onclose = () => {
    el('conn').textContent = 'disconnected';
    el('conn').className = 'status-value disconnected';
    setTimeout(connect, 2000);
  };
  ws.onmessage = (msg) => addEvent(JSON.parse(msg.data));
}

connect();
</script>
</body>
</html>
`

package web

// indexHTML is the single-page review dashboard. It talks to the JSON API
// only; there is no server-side templating.
const indexHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>LicitRadar</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; color: #222; }
h1 { margin-bottom: 0; }
.controls { margin: 1rem 0; }
.card { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin: .6rem 0; }
.card h3 { margin: 0 0 .3rem; }
.score { font-weight: bold; }
.risk { color: #b00; }
.meta { color: #666; font-size: .9rem; }
button { margin-right: .4rem; }
</style>
</head>
<body>
<h1>LicitRadar</h1>
<p class="meta">Panel de revisión de licitaciones</p>
<div class="controls">
  <select id="status">
    <option value="">todas</option>
    <option value="pending">pendientes</option>
    <option value="extracted">extraídas</option>
    <option value="analyzed">analizadas</option>
    <option value="favorited">favoritas</option>
    <option value="archived">archivadas</option>
  </select>
  <button onclick="load()">Actualizar</button>
  <button onclick="runCycle()">Buscar y analizar hoy</button>
  <span id="msg" class="meta"></span>
</div>
<div id="list"></div>
<script>
async function load() {
  const status = document.getElementById('status').value;
  const res = await fetch('/api/tenders' + (status ? '?status=' + status : ''));
  const tenders = await res.json();
  const list = document.getElementById('list');
  list.innerHTML = '';
  for (const t of tenders) {
    const card = document.createElement('div');
    card.className = 'card';
    card.innerHTML =
      '<h3>' + t.title + ' <span class="score">' + (t.score ? t.score + '/10' : '') + '</span></h3>' +
      '<div class="meta">' + t.organization + ' · publicada ' + t.published_date +
      ' · cierre ' + t.closing_date + ' · ' + t.status + '</div>' +
      (t.payment_risk ? '<div class="risk">⚠ ' + t.payment_note + '</div>' : '') +
      (t.verdict ? '<p>' + t.verdict.veredicto + '</p>' : '') +
      '<div>' +
      '<button onclick="setStatus(\'' + t.external_id + '\',\'favorited\')">Favorita</button>' +
      '<button onclick="setStatus(\'' + t.external_id + '\',\'archived\')">Archivar</button>' +
      '<button onclick="setStatus(\'' + t.external_id + '\',\'analyzed\')">Restaurar</button>' +
      (t.link && t.link !== 'No disponible' ? ' <a href="' + t.link + '" target="_blank">Ficha</a>' : '') +
      '</div>';
    list.appendChild(card);
  }
}
async function setStatus(id, status) {
  const res = await fetch('/api/tenders/' + id + '/status', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({status})
  });
  document.getElementById('msg').textContent = res.ok ? '' : 'transición no permitida';
  load();
}
async function runCycle() {
  document.getElementById('msg').textContent = 'ejecutando ciclo…';
  const res = await fetch('/api/run', {method: 'POST'});
  const body = await res.json();
  document.getElementById('msg').textContent = res.ok
    ? 'analizadas ' + body.analyzed + ' de ' + body.registered + ' nuevas'
    : (body.error || 'error');
  load();
}
load();
</script>
</body>
</html>`

package view

// The copy button resets its label after two seconds. The events socket
// reloads the page whenever the server-side state version moves.
const pageScript = `
(function () {
  var copy = document.getElementById("copy");
  if (copy) {
    copy.addEventListener("click", function () {
      navigator.clipboard.writeText(copy.dataset.code).then(function () {
        copy.textContent = "Copied!";
        setTimeout(function () { copy.textContent = "Copy"; }, 2000);
      });
    });
  }
  var version = Number(document.body.dataset.version);
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "/events");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.version !== version) { location.reload(); }
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }
  connect();
})();
`

const baseCSS = `
body{margin:0;background:#0f172a;color:#e2e8f0;font-family:system-ui,sans-serif}
main{max-width:80rem;margin:0 auto;padding:2rem 1rem}
.panel{display:grid;grid-template-columns:1fr 1fr;gap:1.5rem}
.input,.output{display:flex;flex-direction:column;background:#1e293b;border-radius:.75rem;min-height:600px}
.bar{display:flex;justify-content:space-between;align-items:center;padding:1rem;gap:1rem}
textarea{flex:1;background:transparent;color:inherit;font-family:monospace;border:0;padding:1rem;resize:none}
.content{flex:1;overflow:auto;background:#0d1117;padding:1rem}
.tabs a{color:#94a3b8;margin-right:1rem;text-decoration:none}
.tabs a.active{color:#6366f1}
.error{display:flex;justify-content:space-between;padding:1rem;margin-bottom:1.5rem;border-radius:.5rem;background:rgba(239,68,68,.1);color:#fecaca}
.loading{margin-bottom:1rem;color:#94a3b8}
.empty{opacity:.5;text-align:center}
.sr-only{position:absolute;width:1px;height:1px;overflow:hidden;clip:rect(0,0,0,0)}
@media (max-width:64rem){.panel{grid-template-columns:1fr}}
`

package dashboard

const dashboardHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>NewsPulse Dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.5rem; background: linear-gradient(135deg, #38bdf8, #818cf8); background-clip: text; -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
        .header .status { padding: 0.5rem 1rem; border-radius: 9999px; font-size: 0.875rem; font-weight: 600; }
        .status.running { background: #166534; color: #4ade80; }
        .status.stopped { background: #991b1b; color: #fca5a5; }
        .status.idle { background: #854d0e; color: #fde047; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 1rem; padding: 2rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.5rem; transition: transform 0.2s; }
        .card:hover { transform: translateY(-2px); }
        .card .label { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; margin-bottom: 0.5rem; }
        .card .value { font-size: 2rem; font-weight: 700; color: #f1f5f9; }
        .card .sub { font-size: 0.875rem; color: #64748b; margin-top: 0.25rem; }
        .card.accent { border-color: #38bdf8; }
        .card.accent .value { color: #38bdf8; }
        .card.success { border-color: #4ade80; }
        .card.success .value { color: #4ade80; }
        .card.warning { border-color: #fbbf24; }
        .card.warning .value { color: #fbbf24; }
        .card.error { border-color: #f87171; }
        .card.error .value { color: #f87171; }
        table { width: calc(100% - 4rem); margin: 0 2rem 2rem; border-collapse: collapse; background: #1e293b; border-radius: 12px; overflow: hidden; }
        th, td { padding: 0.75rem 1rem; text-align: left; border-bottom: 1px solid #334155; font-size: 0.875rem; }
        th { color: #94a3b8; text-transform: uppercase; font-size: 0.7rem; letter-spacing: 0.05em; }
        td.positive { color: #4ade80; } td.negative { color: #f87171; } td.neutral { color: #94a3b8; } td.error { color: #fbbf24; }
        .footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>NewsPulse Dashboard</h1>
        <span class="status idle" id="status">Idle</span>
    </div>
    <div class="grid" id="stats">
        <div class="card accent"><div class="label">Sessions</div><div class="value" id="sessions_total">0</div></div>
        <div class="card error"><div class="label">Failed Sessions</div><div class="value" id="sessions_failed">0</div><div class="sub" id="timed_out"></div></div>
        <div class="card accent"><div class="label">Active Sessions</div><div class="value" id="sessions_active">0</div></div>
        <div class="card success"><div class="label">Articles Extracted</div><div class="value" id="articles_extracted">0</div></div>
        <div class="card warning"><div class="label">Articles Failed</div><div class="value" id="articles_failed">0</div></div>
        <div class="card success"><div class="label">Comments Scored</div><div class="value" id="comments_scored">0</div></div>
        <div class="card"><div class="label">LLM Tokens</div><div class="value" id="llm_tokens">0</div><div class="sub" id="llm_cost"></div></div>
        <div class="card"><div class="label">Avg Session</div><div class="value" id="avg_session">0s</div></div>
    </div>
    <table>
        <thead><tr><th>Finished</th><th>Keyword</th><th>Sources</th><th>Articles</th><th>Sentiment</th><th>Tokens</th></tr></thead>
        <tbody id="sessions"></tbody>
    </table>
    <div class="footer">NewsPulse · auto-refreshes every 2s</div>
    <script>
        const labels = { positive: '긍정', negative: '부정', neutral: '중립' };
        function esc(s) { const d = document.createElement('div'); d.textContent = s == null ? '' : String(s); return d.innerHTML; }
        async function refresh() {
            try {
                const r = await fetch('/api/stats');
                const d = (await r.json()).sessions || {};
                const active = Number(d.sessions_active || 0);
                const st = document.getElementById('status');
                st.textContent = active > 0 ? 'Analyzing' : 'Idle';
                st.className = 'status ' + (active > 0 ? 'running' : 'idle');
                ['sessions_total','sessions_failed','sessions_active','articles_extracted','articles_failed','comments_scored','llm_tokens'].forEach(k => {
                    const el = document.getElementById(k);
                    if (el && d[k] !== undefined) el.textContent = Number(d[k]).toLocaleString();
                });
                document.getElementById('timed_out').textContent = (d.sessions_timed_out || 0) + ' timed out';
                document.getElementById('llm_cost').textContent = '$' + Number(d.llm_cost_usd || 0).toFixed(4);
                if (d.avg_session) document.getElementById('avg_session').textContent = d.avg_session;
            } catch(e) {}
            try {
                const r = await fetch('/api/sessions');
                const rows = await r.json();
                document.getElementById('sessions').innerHTML = rows.map(s => {
                    const cls = s.error ? 'error' : (s.overallSentiment || 'neutral');
                    const sentiment = s.error ? esc(s.error) : (labels[s.overallSentiment] || '-');
                    return '<tr><td>' + esc(new Date(s.finishedAt).toLocaleTimeString()) + '</td><td>' + esc(s.keyword) +
                        '</td><td>' + esc((s.sources || []).join(', ')) + '</td><td>' + esc(s.totalArticles) +
                        '</td><td class="' + cls + '">' + sentiment + '</td><td>' + esc(s.totalTokens) + '</td></tr>';
                }).join('');
            } catch(e) {}
        }
        setInterval(refresh, 2000);
        refresh();
    </script>
</body>
</html>`

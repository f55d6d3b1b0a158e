package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Edge Trading Dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: linear-gradient(135deg, #0f0c29, #302b63, #24243e);
            color: #fff;
            min-height: 100vh;
            padding: 20px;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            display: grid;
            grid-template-columns: 1fr 1fr;
            gap: 20px;
        }

        .card {
            background: rgba(255, 255, 255, 0.05);
            border-radius: 16px;
            padding: 24px;
            border: 1px solid rgba(255, 255, 255, 0.1);
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.3);
        }

        .wide { grid-column: 1 / span 2; }

        h1 {
            font-size: 28px;
            margin-bottom: 24px;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
        }

        h2 { font-size: 20px; margin-bottom: 16px; color: #a0aec0; }

        .stat-row {
            display: flex;
            justify-content: space-between;
            padding: 10px 0;
            border-bottom: 1px solid rgba(255, 255, 255, 0.05);
        }

        .stat-label { color: #a0aec0; }
        .stat-value { font-weight: 600; }
        .positive { color: #48bb78; }
        .negative { color: #f56565; }

        button {
            margin: 12px 8px 0 0;
            padding: 8px 16px;
            border: none;
            border-radius: 8px;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: #fff;
            cursor: pointer;
        }

        .log { font-family: monospace; font-size: 13px; max-height: 420px; overflow-y: auto; }
        .log div { padding: 4px 0; border-bottom: 1px solid rgba(255, 255, 255, 0.05); }
        .kind-trade { color: #48bb78; }
        .kind-error { color: #f56565; }
        .kind-skip { color: #a0aec0; }
        .kind-scan { color: #90cdf4; }
    </style>
</head>
<body>
    <h1>📈 Edge Trading</h1>
    <div class="container">
        <div class="card">
            <h2>Spot scalper</h2>
            <div id="spot"></div>
            <button onclick="action('spot', 'start')">▶️ Start</button>
            <button onclick="action('spot', 'stop')">⏸️ Stop</button>
        </div>
        <div class="card">
            <h2>Prediction-market scanner</h2>
            <div id="scanner"></div>
            <button onclick="action('scanner', 'start')">▶️ Start</button>
            <button onclick="action('scanner', 'stop')">⏸️ Stop</button>
            <button onclick="action('scanner', 'run')">🔍 Scan now</button>
            <button onclick="action('scanner', 'connect')">🔌 Reconnect</button>
        </div>
        <div class="card wide">
            <h2>Activity</h2>
            <div id="log" class="log"></div>
        </div>
    </div>

    <script>
        function row(label, value, cls) {
            return '<div class="stat-row"><span class="stat-label">' + label +
                '</span><span class="stat-value ' + (cls || '') + '">' + value + '</span></div>';
        }

        function sign(v) { return v > 0 ? 'positive' : (v < 0 ? 'negative' : ''); }

        function esc(s) {
            const d = document.createElement('div');
            d.textContent = s || '';
            return d.innerHTML;
        }

        async function refresh() {
            try {
                const [statsRes, logRes] = await Promise.all([fetch('/api/stats'), fetch('/api/logs')]);
                const stats = await statsRes.json();
                const logs = await logRes.json();

                const s = stats.spot;
                document.getElementById('spot').innerHTML =
                    row('Status', (s.running ? '▶️ ' : '⏸️ ') + esc(s.status)) +
                    row('Price', s.price.toFixed(2)) +
                    row('Cash', s.cash.toFixed(2)) +
                    row('Portfolio', s.portfolio_value.toFixed(2)) +
                    row('Return', s.total_return.toFixed(2) + '%', sign(s.total_return)) +
                    row('Position', s.position ? s.position.size.toFixed(6) + ' @ ' + s.position.entry_price.toFixed(2) : 'none') +
                    row('Trades', s.total_trades + ' (win rate ' + s.win_rate.toFixed(1) + '%)') +
                    row('Last signal', (s.last_signal.signal || 'WAIT') + ' ' + s.last_signal.confidence + '%');

                const k = stats.scanner;
                document.getElementById('scanner').innerHTML =
                    row('Status', (k.running ? '▶️ ' : '⏸️ ') + esc(k.status) + (k.scanning ? ' 🔍' : '')) +
                    row('Connected', k.connected ? 'yes' : 'no') +
                    row('Balance', '$' + k.balance.toFixed(2)) +
                    row('P&L', '$' + k.pnl.toFixed(2), sign(k.pnl)) +
                    row('Orders placed', k.trades_placed) +
                    row('Wagered', '$' + k.total_wagered.toFixed(2));

                document.getElementById('log').innerHTML = logs.map(function (e) {
                    return '<div class="kind-' + e.kind + '">' + new Date(e.time).toLocaleTimeString() + ' ' +
                        esc(e.message) + (e.detail ? ' <span class="stat-label">' + esc(e.detail) + '</span>' : '') + '</div>';
                }).join('');
            } catch (err) {
                console.error('refresh failed', err);
            }
        }

        async function action(strategy, act) {
            const res = await fetch('/api/engine/action', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ strategy: strategy, action: act })
            });
            if (!res.ok) {
                const body = await res.json();
                alert(body.error || 'request failed');
            }
            refresh();
        }

        refresh();
        setInterval(refresh, 5000);
    </script>
</body>
</html>
`
